package ui

import (
	"context"
	"time"

	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"github.com/rs/zerolog"

	"github.com/geopulse/geopulse-terminal/internal/alerts"
	"github.com/geopulse/geopulse-terminal/internal/datefilter"
	"github.com/geopulse/geopulse-terminal/internal/export"
	"github.com/geopulse/geopulse-terminal/internal/geolocation"
	"github.com/geopulse/geopulse-terminal/internal/hotspots"
	"github.com/geopulse/geopulse-terminal/internal/icons"
	"github.com/geopulse/geopulse-terminal/internal/mapview"
	"github.com/geopulse/geopulse-terminal/internal/metrics"
	"github.com/geopulse/geopulse-terminal/internal/models"
	"github.com/geopulse/geopulse-terminal/internal/report"
	"github.com/geopulse/geopulse-terminal/internal/session"
	"github.com/geopulse/geopulse-terminal/internal/vallaris"
)

// AppState represents the current state of the application
type AppState int

const (
	StateLoading AppState = iota // Fetching the hotspot collection
	StateDisplay                 // Map and panels
	StateError                   // Fetch failed, error replaces the map
)

// Focus represents which part of the screen receives keys
type Focus int

const (
	FocusMap Focus = iota
	FocusFilter
	FocusCustomRange
	FocusDraft
	FocusAlerts
	FocusReport
)

const (
	headerHeight = 2
	footerHeight = 2
	sideWidth    = 40
	// below this width the side panel is dropped
	minSideWidth = 80
)

// draft form fields
const (
	draftTitle = iota
	draftMessage
	draftSeverity
	draftFieldCount
)

// Deps are the collaborators of the model. Optional ones may be nil.
type Deps struct {
	Client       vallaris.FeatureClient
	CollectionID string

	Locator       geolocation.Locator // nil disables geolocation
	LocateOptions geolocation.Options
	WatchInterval time.Duration
	Namer         PlaceNamer

	Icons       IconLoader
	Basemap     mapview.Basemap
	Provisioner BasemapProvisioner
	Exporter    *export.Exporter

	Session *session.Session
	Filter  *datefilter.Filter
	Metrics metrics.Provider
	Logger  zerolog.Logger

	Center orb.Point
	Zoom   float64
}

// dataset holds the fetched collection and the part the filter leaves visible
type dataset struct {
	all      *geojson.FeatureCollection
	visible  *geojson.FeatureCollection
	hotspots []models.Hotspot
	rng      hotspots.Range
	report   report.Report

	mapv    *mapview.Map
	metrics metrics.Provider
}

// apply recomputes the visible set for r and reconciles the hotspot markers
func (d *dataset) apply(r hotspots.Range) {
	d.rng = r
	d.visible = hotspots.FilterByRange(d.all, r)
	d.hotspots = hotspots.Points(d.visible)
	d.report = report.Build(d.visible, datefilter.FormatRange(r))
	d.mapv.SetHotspots(d.hotspots)
	d.metrics.SetVisibleHotspots(len(d.hotspots))
}

// Model represents the application's state
type Model struct {
	ctx    context.Context
	cancel context.CancelFunc

	state  AppState
	focus  Focus
	width  int
	height int
	err    error
	status string

	// Collaborators
	client        vallaris.FeatureClient
	collectionID  string
	locator       geolocation.Locator
	locateOpts    geolocation.Options
	watchInterval time.Duration
	namer         PlaceNamer
	iconLoader    IconLoader
	provisioner   BasemapProvisioner
	exporter      *export.Exporter
	metrics       metrics.Provider
	logger        zerolog.Logger
	now           func() time.Time

	// Session-scoped state
	session *session.Session
	filter  *datefilter.Filter
	store   *alerts.Store
	drafter *alerts.Drafter
	mapv    *mapview.Map
	data    *dataset
	watch   *watchHolder
	updates <-chan locationUpdate

	icons         map[icons.Kind]icons.Icon
	basemapStatus string
	refreshing    bool

	// Filter panel
	filterCursor int
	startInput   textinput.Model
	endInput     textinput.Model
	customField  int

	// Draft form
	titleInput   textinput.Model
	messageInput textinput.Model
	draftField   int
	draftErr     error

	alertList   list.Model
	reportHover int

	spinner spinner.Model
}

// NewModel creates a new application model. The model owns a child of ctx
// that Close cancels.
func NewModel(ctx context.Context, d Deps) Model {
	ctx, cancel := context.WithCancel(ctx)

	if d.Metrics == nil {
		d.Metrics = metrics.Noop()
	}
	if d.Session == nil {
		d.Session = session.New()
	}
	if d.Filter == nil {
		d.Filter = datefilter.New(datefilter.PresetAll)
	}
	if d.WatchInterval <= 0 {
		d.WatchInterval = 30 * time.Second
	}
	if d.Zoom == 0 {
		d.Zoom = 8
	}

	mv := mapview.New(d.Center, d.Zoom, d.Basemap, d.Logger)
	ds := &dataset{mapv: mv, metrics: d.Metrics}
	ds.apply(d.Filter.Range())
	d.Filter.Subscribe(ds.apply)

	store := alerts.NewStore()

	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(colorPrimary)

	basemapStatus := ""
	if d.Provisioner != nil {
		basemapStatus = "basemap: preparing"
	}

	return Model{
		ctx:           ctx,
		cancel:        cancel,
		state:         StateLoading,
		focus:         FocusMap,
		client:        d.Client,
		collectionID:  d.CollectionID,
		locator:       d.Locator,
		locateOpts:    d.LocateOptions,
		watchInterval: d.WatchInterval,
		namer:         d.Namer,
		iconLoader:    d.Icons,
		provisioner:   d.Provisioner,
		exporter:      d.Exporter,
		metrics:       d.Metrics,
		logger:        d.Logger,
		now:           time.Now,
		session:       d.Session,
		filter:        d.Filter,
		store:         store,
		drafter:       alerts.NewDrafter(store),
		mapv:          mv,
		data:          ds,
		watch:         &watchHolder{},
		icons:         make(map[icons.Kind]icons.Icon),
		basemapStatus: basemapStatus,
		alertList:     createAlertList(nil, sideWidth-4, 10),
		startInput:    newInput("YYYY-MM-DD", 10),
		endInput:      newInput("YYYY-MM-DD", 10),
		titleInput:    newInput("Title (required)", alerts.MaxTitleLen),
		messageInput:  newInput("Message (optional)", alerts.MaxMessageLen),
		reportHover:   -1,
		spinner:       s,
	}
}

func newInput(placeholder string, limit int) textinput.Model {
	ti := textinput.New()
	ti.Placeholder = placeholder
	ti.CharLimit = limit
	ti.Width = sideWidth - 6
	return ti
}

// Init starts the fetch and the background loaders
func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{m.spinner.Tick, fetchFeatures(m.ctx, m.client, m.collectionID)}
	if m.locator != nil {
		cmds = append(cmds,
			locateOnce(m.ctx, m.locator, m.locateOpts),
			startWatch(m.ctx, m.locator, m.locateOpts, m.watchInterval, m.watch),
		)
	}
	if m.iconLoader != nil {
		cmds = append(cmds, loadIcons(m.ctx, m.iconLoader))
	}
	if m.provisioner != nil {
		cmds = append(cmds, provisionBasemap(m.ctx, m.provisioner))
	}
	return tea.Batch(cmds...)
}

// Close tears the session down: background work is cancelled, the watch is
// cleared and the map released. Safe to call more than once.
func (m Model) Close() {
	m.cancel()
	m.watch.clear()
	m.mapv.Close()
	m.session.Close()
}

// Update handles messages and updates the model
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	m, cmd := m.update(msg)
	m.layout()
	return m, cmd
}

func (m Model) update(msg tea.Msg) (Model, tea.Cmd) {
	// Handle window size
	if msg, ok := msg.(tea.WindowSizeMsg); ok {
		m.width = msg.Width
		m.height = msg.Height
		return m, nil
	}

	// Handle custom messages
	switch msg := msg.(type) {
	case errMsg:
		m.err = msg.err
		m.state = StateError
		return m, nil

	case featuresFetchedMsg:
		return m.handleFeatures(msg)

	case RefreshMsg:
		if m.state == StateLoading || m.refreshing {
			return m, nil
		}
		return m.reload()

	case positionMsg:
		return m.handlePosition(msg)

	case positionErrMsg:
		m.logger.Warn().Err(msg.err).Msg("geolocation failed")
		m.metrics.IncGeolocationErrors()
		if msg.fromWatch && m.updates != nil {
			return m, waitForLocation(m.ctx, m.updates)
		}
		return m, nil

	case watchStartedMsg:
		m.updates = msg.updates
		return m, waitForLocation(m.ctx, m.updates)

	case placeNameMsg:
		m.session.SetPlaceName(msg.name)
		m.session.SetUpdating(false)
		return m, nil

	case iconsLoadedMsg:
		m.icons = msg.icons
		return m, nil

	case basemapReadyMsg:
		if msg.err != nil {
			m.logger.Warn().Err(msg.err).Msg("basemap unavailable")
			m.basemapStatus = "basemap: unavailable"
			return m, nil
		}
		m.basemapStatus = ""
		if msg.downloaded {
			m.logger.Info().Msg("basemap downloaded")
			m.status = "Coastlines downloaded"
		}
		m.mapv.RefreshBasemap()
		return m, nil

	case flyTickMsg:
		if m.mapv.Advance(time.Time(msg)) {
			return m, flyTick()
		}
		return m, nil

	case exportDoneMsg:
		if msg.err != nil {
			m.logger.Error().Err(msg.err).Msg("export failed")
			m.status = "Export failed: " + msg.err.Error()
			return m, nil
		}
		m.logger.Info().Strs("files", msg.paths).Msg("exported")
		m.status = "Exported " + joinPaths(msg.paths)
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case tea.MouseMsg:
		if m.state != StateDisplay {
			return m, nil
		}
		return m.handleMouse(msg)
	}

	// Handle keyboard input
	if keyMsg, ok := msg.(tea.KeyMsg); ok {
		// Global keys
		if keyMsg.Type == tea.KeyCtrlC || (keyMsg.String() == "q" && !m.typing()) {
			m.Close()
			return m, tea.Quit
		}

		// State-specific handling
		switch m.state {
		case StateLoading:
			return m, nil

		case StateError:
			// Any key retries
			return m.reload()

		case StateDisplay:
			switch m.focus {
			case FocusFilter:
				return m.handleFilterKey(keyMsg)
			case FocusCustomRange:
				return m.handleCustomRangeKey(keyMsg)
			case FocusDraft:
				return m.handleDraftKey(keyMsg)
			case FocusAlerts:
				return m.handleAlertListKey(keyMsg)
			case FocusReport:
				return m.handleReportKey(keyMsg)
			default:
				return m.handleMapKey(keyMsg)
			}
		}
	}

	// Cursor blink and similar input messages
	return m.updateInputs(msg)
}

// typing reports whether keys go to a text input
func (m Model) typing() bool {
	return m.state == StateDisplay && (m.focus == FocusCustomRange ||
		(m.focus == FocusDraft && m.draftField != draftSeverity))
}

// reload re-fetches the collection wholesale. Filters and alerts survive.
func (m Model) reload() (Model, tea.Cmd) {
	if m.state == StateDisplay {
		m.refreshing = true
	} else {
		m.state = StateLoading
	}
	m.err = nil
	return m, tea.Batch(m.spinner.Tick, fetchFeatures(m.ctx, m.client, m.collectionID))
}

func (m Model) handleFeatures(msg featuresFetchedMsg) (Model, tea.Cmd) {
	m.refreshing = false
	if msg.err != nil {
		m.logger.Error().Err(msg.err).Msg("failed to fetch hotspots")
		m.err = msg.err
		m.state = StateError
		return m, nil
	}

	m.data.all = msg.collection
	m.data.apply(m.filter.Range())
	m.syncAlerts()
	m.state = StateDisplay
	m.logger.Info().
		Int("features", featureCount(msg.collection)).
		Int("visible", len(m.data.hotspots)).
		Msg("hotspots loaded")
	return m, nil
}

func featureCount(fc *geojson.FeatureCollection) int {
	if fc == nil {
		return 0
	}
	return len(fc.Features)
}

// handlePosition records a fix. The first fix creates the user marker and
// flies to it; every fix is reverse geocoded.
func (m Model) handlePosition(msg positionMsg) (Model, tea.Cmd) {
	p := msg.position
	m.session.SetCoords(p.Longitude, p.Latitude)
	m.session.SetUpdating(true)

	var cmds []tea.Cmd
	pt := orb.Point{p.Longitude, p.Latitude}
	if m.mapv.SetUserPosition(pt) {
		cmds = append(cmds, m.flyTo(pt, mapview.ZoomGeolocate, mapview.FlyGeolocate))
	}

	if m.namer != nil {
		cmds = append(cmds, reverseGeocode(m.ctx, m.namer, p.Longitude, p.Latitude))
	} else {
		m.session.SetUpdating(false)
	}

	if msg.fromWatch && m.updates != nil {
		cmds = append(cmds, waitForLocation(m.ctx, m.updates))
	}
	return m, tea.Batch(cmds...)
}

// flyTo starts a flight; only one tick chain runs at a time
func (m Model) flyTo(p orb.Point, zoom float64, d time.Duration) tea.Cmd {
	running := m.mapv.Flying()
	m.mapv.FlyTo(p, zoom, d, m.now())
	if running || !m.mapv.Flying() {
		return nil
	}
	return flyTick()
}

// myLocation flies to the last known user position
func (m Model) myLocation() (Model, tea.Cmd) {
	p, ok := m.mapv.UserPosition()
	if !ok {
		m.logger.Warn().Msg("user location not available yet")
		m.status = "Location not available yet"
		return m, nil
	}
	return m, m.flyTo(p, mapview.ZoomMyLocation, mapview.FlyMyLocation)
}

// click acts on the map cell under the pointer
func (m Model) click(col, row int) (Model, tea.Cmd) {
	res := m.mapv.Click(col, row, m.drafter.Adding())
	if res.Kind != mapview.ClickPlace {
		return m, nil
	}

	if err := m.drafter.Place(res.Point.Lon(), res.Point.Lat()); err != nil {
		return m, nil
	}
	m.mapv.SetDraft(&res.Point)
	return m.focusDraft()
}

// focusAlert flies to an alert and closes any popup
func (m Model) focusAlert(id string) (Model, tea.Cmd) {
	running := m.mapv.Flying()
	if !m.mapv.FocusAlert(id, m.now()) {
		return m, nil
	}
	m.focus = FocusMap
	if running {
		return m, nil
	}
	return m, flyTick()
}

func (m Model) deleteAlert(id string) Model {
	if m.store.Delete(id) {
		m.syncAlerts()
		m.status = "Alert deleted"
	}
	return m
}

// syncAlerts reconciles alert markers and the alert list with the store
func (m *Model) syncAlerts() {
	all := m.store.List()
	m.mapv.SetAlerts(all)
	m.metrics.SetAlerts(len(all))

	idx := m.alertList.Index()
	m.alertList = createAlertList(all, sideWidth-4, m.mapRows()-2)
	if idx >= len(all) {
		idx = len(all) - 1
	}
	if idx > 0 {
		m.alertList.Select(idx)
	}
}

func (m Model) sideVisible() bool {
	return m.width >= minSideWidth
}

// panelOverMap reports whether a screen too narrow for the side panel shows
// it in place of the map
func (m Model) panelOverMap() bool {
	return !m.sideVisible() && (m.focus != FocusMap || m.mapv.Popup() != nil)
}

func (m Model) panelWidth() int {
	if m.sideVisible() {
		return sideWidth
	}
	return m.width
}

func (m Model) mapCols() int {
	if m.sideVisible() {
		return m.width - sideWidth
	}
	return m.width
}

func (m Model) mapRows() int {
	return max(m.height-headerHeight-footerHeight, 1)
}

// layout fits the map to the screen
func (m *Model) layout() {
	if m.width == 0 || m.height == 0 {
		return
	}
	m.mapv.Resize(m.mapCols(), m.mapRows())
}

func (m Model) updateInputs(msg tea.Msg) (Model, tea.Cmd) {
	var cmd tea.Cmd
	switch m.focus {
	case FocusCustomRange:
		if m.customField == 0 {
			m.startInput, cmd = m.startInput.Update(msg)
		} else {
			m.endInput, cmd = m.endInput.Update(msg)
		}
	case FocusDraft:
		switch m.draftField {
		case draftTitle:
			m.titleInput, cmd = m.titleInput.Update(msg)
		case draftMessage:
			m.messageInput, cmd = m.messageInput.Update(msg)
		}
	case FocusAlerts:
		m.alertList, cmd = m.alertList.Update(msg)
	}
	return m, cmd
}

// Session exposes the location session, for teardown and tests
func (m Model) Session() *session.Session { return m.session }

// State returns the current application state
func (m Model) State() AppState { return m.state }
