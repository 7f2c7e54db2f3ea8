package ui

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"github.com/rs/zerolog"

	"github.com/geopulse/geopulse-terminal/internal/alerts"
	"github.com/geopulse/geopulse-terminal/internal/datefilter"
	"github.com/geopulse/geopulse-terminal/internal/geolocation"
)

type mockFeatureClient struct {
	fc    *geojson.FeatureCollection
	err   error
	calls int
}

func (c *mockFeatureClient) GetFeatures(ctx context.Context, collectionID string) (*geojson.FeatureCollection, error) {
	c.calls++
	if c.err != nil {
		return nil, c.err
	}
	return c.fc, nil
}

type stubNamer struct {
	name string
}

func (n stubNamer) ReverseName(ctx context.Context, lon, lat float64) *string {
	if n.name == "" {
		return nil
	}
	name := n.name
	return &name
}

var testNow = time.Date(2025, 10, 1, 12, 0, 0, 0, time.UTC)

func newTestModel(t *testing.T, client *mockFeatureClient) Model {
	t.Helper()
	f := datefilter.New(datefilter.PresetAll)
	f.SetClock(func() time.Time { return testNow })

	m := NewModel(context.Background(), Deps{
		Client:       client,
		CollectionID: "hotspots",
		Filter:       f,
		Logger:       zerolog.Nop(),
		Center:       orb.Point{100, 14},
		Zoom:         6,
	})
	t.Cleanup(m.Close)
	return send(m, tea.WindowSizeMsg{Width: 120, Height: 40})
}

func send(m Model, msg tea.Msg) Model {
	updated, _ := m.Update(msg)
	return updated.(Model)
}

func keys(m Model, ks ...string) Model {
	for _, k := range ks {
		m = send(m, key(k))
	}
	return m
}

func key(k string) tea.KeyMsg {
	switch k {
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	case "tab":
		return tea.KeyMsg{Type: tea.KeyTab}
	case "up":
		return tea.KeyMsg{Type: tea.KeyUp}
	case "down":
		return tea.KeyMsg{Type: tea.KeyDown}
	case "left":
		return tea.KeyMsg{Type: tea.KeyLeft}
	case "right":
		return tea.KeyMsg{Type: tea.KeyRight}
	case "space":
		return tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}}
	default:
		return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(k)}
	}
}

func typeText(m Model, s string) Model {
	for _, r := range s {
		m = send(m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}})
	}
	return m
}

func feature(id string, p orb.Point, acqDate string, frp float64) *geojson.Feature {
	f := geojson.NewFeature(p)
	f.ID = id
	if acqDate != "" {
		f.Properties["acq_date"] = acqDate
	}
	f.Properties["frp"] = frp
	return f
}

// testCollection places features away from the centred cursor
func testCollection(m Model) *geojson.FeatureCollection {
	v := m.mapv.Viewport()
	fc := geojson.NewFeatureCollection()
	fc.Append(feature("h1", v.Unproject(10, 5), "2025-10-01", 1.5))
	fc.Append(feature("h2", v.Unproject(20, 8), "2025-09-20", 8))
	fc.Append(feature("h3", v.Unproject(30, 30), "2025-10-01", 13))
	fc.Append(feature("h4", v.Unproject(60, 25), "", 3))
	return fc
}

func loadedModel(t *testing.T) (Model, *mockFeatureClient) {
	t.Helper()
	client := &mockFeatureClient{}
	m := newTestModel(t, client)
	client.fc = testCollection(m)
	m = send(m, fetchFeatures(context.Background(), client, "hotspots")())
	return m, client
}

func TestNewModel(t *testing.T) {
	m := newTestModel(t, &mockFeatureClient{})

	if m.State() != StateLoading {
		t.Errorf("NewModel() state = %v, want StateLoading", m.state)
	}
	if m.focus != FocusMap {
		t.Errorf("NewModel() focus = %v, want FocusMap", m.focus)
	}
	if m.Session() == nil {
		t.Fatal("NewModel() session should not be nil")
	}
	if got := m.View(); !strings.Contains(got, "Loading") {
		t.Errorf("loading view = %q, want it to mention Loading", got)
	}
}

func TestModel_Update_WindowSize(t *testing.T) {
	m := newTestModel(t, &mockFeatureClient{})

	if m.width != 120 || m.height != 40 {
		t.Errorf("size = %dx%d, want 120x40", m.width, m.height)
	}
	v := m.mapv.Viewport()
	if v.Cols != 80 || v.Rows != 36 {
		t.Errorf("map size = %dx%d, want 80x36", v.Cols, v.Rows)
	}
}

func TestModel_Narrow_HidesSidePanel(t *testing.T) {
	m := newTestModel(t, &mockFeatureClient{})
	m = send(m, tea.WindowSizeMsg{Width: 60, Height: 20})

	if m.sideVisible() {
		t.Error("side panel should be hidden below the minimum width")
	}
	if m.mapCols() != 60 {
		t.Errorf("mapCols() = %d, want 60", m.mapCols())
	}
}

func TestModel_Narrow_PanelReplacesMap(t *testing.T) {
	m, _ := loadedModel(t)
	m = send(m, tea.WindowSizeMsg{Width: 70, Height: 30})
	m = keys(m, "n", "enter")

	if m.focus != FocusDraft {
		t.Fatalf("focus = %v, want FocusDraft", m.focus)
	}
	view := m.View()
	if !strings.Contains(view, "New Alert") || !strings.Contains(view, "Title") {
		t.Errorf("narrow view should show the draft form, got %q", view)
	}

	m = keys(m, "esc")
	if m.panelOverMap() {
		t.Error("map should return once the draft is cancelled")
	}
	if strings.Contains(m.View(), "New Alert") {
		t.Error("draft form should be gone after esc")
	}
}

func TestModel_BasemapReady(t *testing.T) {
	m, _ := loadedModel(t)

	m = send(m, basemapReadyMsg{})
	if m.status != "" {
		t.Errorf("cached basemap should not set a status, got %q", m.status)
	}

	m = send(m, basemapReadyMsg{downloaded: true})
	if m.status != "Coastlines downloaded" {
		t.Errorf("status = %q, want Coastlines downloaded", m.status)
	}

	m = send(m, basemapReadyMsg{err: errors.New("offline")})
	if m.basemapStatus != "basemap: unavailable" {
		t.Errorf("basemapStatus = %q, want basemap: unavailable", m.basemapStatus)
	}
}

func TestModel_FeaturesFetched(t *testing.T) {
	m, client := loadedModel(t)

	if client.calls != 1 {
		t.Errorf("GetFeatures calls = %d, want 1", client.calls)
	}
	if m.State() != StateDisplay {
		t.Fatalf("state = %v, want StateDisplay", m.state)
	}
	if got := len(m.mapv.HotspotMarkers()); got != 4 {
		t.Errorf("hotspot markers = %d, want 4", got)
	}
	// the undated feature is drawn but not counted
	if got := m.data.report.Stats.Total; got != 3 {
		t.Errorf("report total = %d, want 3", got)
	}

	view := m.View()
	if !strings.Contains(view, "GeoPulse") {
		t.Error("display view should contain the title")
	}
	if !strings.Contains(view, "4 hotspots") {
		t.Errorf("display view should count hotspots, got %q", view)
	}
}

func TestModel_FetchError(t *testing.T) {
	client := &mockFeatureClient{err: errors.New("boom")}
	m := newTestModel(t, client)
	m = send(m, fetchFeatures(context.Background(), client, "hotspots")())

	if m.State() != StateError {
		t.Fatalf("state = %v, want StateError", m.state)
	}
	if !strings.Contains(m.View(), "Failed to fetch data") {
		t.Error("error view should explain the failure")
	}

	// any key retries
	updated, cmd := m.Update(key("x"))
	m = updated.(Model)
	if m.State() != StateLoading {
		t.Errorf("after retry state = %v, want StateLoading", m.state)
	}
	if cmd == nil {
		t.Error("retry should return a fetch command")
	}
}

func TestModel_Update_ErrorMsg(t *testing.T) {
	m := newTestModel(t, &mockFeatureClient{})
	m = send(m, errMsg{err: tea.ErrProgramKilled})

	if m.state != StateError {
		t.Errorf("After errMsg, state = %v, want StateError", m.state)
	}
	if m.err == nil {
		t.Error("After errMsg, err should not be nil")
	}
}

func TestModel_FilterPreset(t *testing.T) {
	m, _ := loadedModel(t)

	m = keys(m, "f")
	if m.focus != FocusFilter {
		t.Fatalf("focus = %v, want FocusFilter", m.focus)
	}
	m = keys(m, "down", "down", "down", "enter")

	if got := m.filter.Selection().Preset; got != datefilter.Preset7d {
		t.Fatalf("preset = %q, want 7d", got)
	}
	if m.focus != FocusMap {
		t.Errorf("focus = %v, want FocusMap after choosing", m.focus)
	}
	// 2025-09-20 falls outside the last seven days, the undated one stays
	if got := len(m.mapv.HotspotMarkers()); got != 3 {
		t.Errorf("hotspot markers = %d, want 3", got)
	}
	if got := m.data.report.Stats.Total; got != 2 {
		t.Errorf("report total = %d, want 2", got)
	}
}

func TestModel_FilterClear(t *testing.T) {
	m, _ := loadedModel(t)
	m = keys(m, "f", "down", "down", "down", "enter", "f", "c")

	if got := m.filter.Selection().Preset; got != datefilter.PresetNone {
		t.Errorf("preset = %q, want none", got)
	}
	if got := len(m.mapv.HotspotMarkers()); got != 4 {
		t.Errorf("hotspot markers = %d, want 4", got)
	}
}

func TestModel_CustomRange(t *testing.T) {
	m, _ := loadedModel(t)
	m = keys(m, "f", "down", "down", "down", "down", "down", "enter")

	if m.focus != FocusCustomRange {
		t.Fatalf("focus = %v, want FocusCustomRange", m.focus)
	}
	if got := len(m.mapv.HotspotMarkers()); got != 4 {
		t.Errorf("empty custom range should show everything, got %d", got)
	}
	if !m.typing() {
		t.Error("custom range inputs should capture keys")
	}

	// partial input is not applied
	m = typeText(m, "2025-09")
	if got := m.filter.Selection().CustomStart; got != "" {
		t.Errorf("partial start applied: %q", got)
	}

	m = typeText(m, "-30")
	if got := m.filter.Selection().CustomStart; got != "2025-09-30" {
		t.Fatalf("custom start = %q, want 2025-09-30", got)
	}
	if got := len(m.mapv.HotspotMarkers()); got != 3 {
		t.Errorf("hotspot markers = %d, want 3", got)
	}

	// q is text here, not quit
	updated, _ := m.Update(key("q"))
	if updated.(Model).Session().Closed() {
		t.Error("q inside an input should not quit")
	}
}

func TestModel_AddAlert(t *testing.T) {
	m, _ := loadedModel(t)

	m = keys(m, "n")
	if !m.drafter.Adding() {
		t.Fatal("n should start placing an alert")
	}
	if m.drafter.Phase() != alerts.PhasePlacing {
		t.Errorf("phase = %v, want placing", m.drafter.Phase())
	}

	// click the empty cell under the cursor
	m = keys(m, "enter")
	if m.drafter.Phase() != alerts.PhaseDrafting {
		t.Fatalf("phase = %v, want drafting", m.drafter.Phase())
	}
	if m.focus != FocusDraft {
		t.Fatalf("focus = %v, want FocusDraft", m.focus)
	}

	// an empty title is rejected
	m = keys(m, "enter")
	if !errors.Is(m.draftErr, alerts.ErrTitleRequired) {
		t.Errorf("draftErr = %v, want ErrTitleRequired", m.draftErr)
	}
	if m.store.Len() != 0 {
		t.Errorf("store holds %d alerts, want 0", m.store.Len())
	}
	if !strings.Contains(m.View(), "Title is required") {
		t.Error("draft form should show the title error")
	}

	// whitespace only is rejected too
	m = typeText(m, "   ")
	m = keys(m, "enter")
	if m.store.Len() != 0 {
		t.Errorf("whitespace title saved an alert")
	}

	m.titleInput.SetValue("")
	m = typeText(m, "Smoke")
	m = keys(m, "enter")

	if m.store.Len() != 1 {
		t.Fatalf("store holds %d alerts, want 1", m.store.Len())
	}
	if m.drafter.Adding() {
		t.Error("saving should end the draft")
	}
	if m.focus != FocusMap {
		t.Errorf("focus = %v, want FocusMap", m.focus)
	}
	if got := len(m.mapv.AlertMarkers()); got != 1 {
		t.Errorf("alert markers = %d, want 1", got)
	}
	if m.status != "Alert saved" {
		t.Errorf("status = %q, want Alert saved", m.status)
	}

	a := m.store.List()[0]
	if a.Title != "Smoke" {
		t.Errorf("title = %q, want Smoke", a.Title)
	}
	want := m.mapv.Viewport().Unproject(40, 18)
	if a.Longitude != want.Lon() || a.Latitude != want.Lat() {
		t.Errorf("alert at %v,%v, want %v", a.Longitude, a.Latitude, want)
	}
}

func TestModel_DraftSeverityCycle(t *testing.T) {
	m, _ := loadedModel(t)
	m = keys(m, "n", "enter", "tab", "tab")

	if m.draftField != draftSeverity {
		t.Fatalf("draftField = %d, want severity", m.draftField)
	}
	before := m.drafter.Draft().Severity
	m = keys(m, "right")
	if m.drafter.Draft().Severity == before {
		t.Error("right should cycle the severity")
	}
	m = keys(m, "left")
	if m.drafter.Draft().Severity != before {
		t.Errorf("left should step back to %v", before)
	}
}

func TestModel_CancelDraft(t *testing.T) {
	m, _ := loadedModel(t)
	m = keys(m, "n", "enter", "esc")

	if m.drafter.Adding() {
		t.Error("esc should cancel the draft")
	}
	if m.focus != FocusMap {
		t.Errorf("focus = %v, want FocusMap", m.focus)
	}
	if m.store.Len() != 0 {
		t.Error("cancelled draft should not be saved")
	}
}

func TestModel_DeleteAlertFromList(t *testing.T) {
	m, _ := loadedModel(t)
	m = keys(m, "n", "enter")
	m = typeText(m, "Smoke")
	m = keys(m, "enter")

	m = keys(m, "a")
	if m.focus != FocusAlerts {
		t.Fatalf("focus = %v, want FocusAlerts", m.focus)
	}
	m = keys(m, "d")

	if m.store.Len() != 0 {
		t.Errorf("store holds %d alerts, want 0", m.store.Len())
	}
	if got := len(m.mapv.AlertMarkers()); got != 0 {
		t.Errorf("alert markers = %d, want 0", got)
	}
}

func TestModel_ClickHotspotOpensPopup(t *testing.T) {
	m, _ := loadedModel(t)

	m = send(m, tea.MouseMsg{X: 10, Y: 5 + headerHeight, Action: tea.MouseActionPress, Button: tea.MouseButtonLeft})

	p := m.mapv.Popup()
	if p == nil {
		t.Fatal("clicking a hotspot should open its popup")
	}
	if p.Key != "id:h1" {
		t.Errorf("popup key = %q, want id:h1", p.Key)
	}
	if !strings.Contains(m.View(), "Confidence") {
		t.Error("side panel should show the popup fields")
	}

	m = keys(m, "esc")
	if m.mapv.Popup() != nil {
		t.Error("esc should close the popup")
	}
}

func TestModel_ClickWhilePlacing_NoPopup(t *testing.T) {
	m, _ := loadedModel(t)
	m = keys(m, "n")

	m = send(m, tea.MouseMsg{X: 10, Y: 5 + headerHeight, Action: tea.MouseActionPress, Button: tea.MouseButtonLeft})

	if m.mapv.Popup() != nil {
		t.Error("placing should not open hotspot popups")
	}
	if m.drafter.Phase() != alerts.PhaseDrafting {
		t.Errorf("phase = %v, want drafting", m.drafter.Phase())
	}
}

func TestModel_Position(t *testing.T) {
	m, _ := loadedModel(t)
	m.namer = stubNamer{name: "Chiang Mai"}

	updated, cmd := m.Update(positionMsg{position: geolocation.Position{Longitude: 98.98, Latitude: 18.79}})
	m = updated.(Model)

	st := m.Session().Snapshot()
	if st.Coords == nil || st.Coords.Lon() != 98.98 {
		t.Fatalf("coords = %v, want 98.98,18.79", st.Coords)
	}
	if !st.Updating {
		t.Error("reverse lookup should be in progress")
	}
	if cmd == nil {
		t.Error("position should start the fly and the lookup")
	}
	if !m.mapv.Flying() {
		t.Error("the first fix should fly to the user")
	}

	m = send(m, reverseGeocode(context.Background(), m.namer, 98.98, 18.79)())
	st = m.Session().Snapshot()
	if st.PlaceName == nil || *st.PlaceName != "Chiang Mai" {
		t.Errorf("place name = %v, want Chiang Mai", st.PlaceName)
	}
	if st.Updating {
		t.Error("updating should clear once the name arrives")
	}
	if !strings.Contains(m.View(), "Chiang Mai") {
		t.Error("header should show the place name")
	}
}

func TestModel_PositionWithoutNamer(t *testing.T) {
	m, _ := loadedModel(t)
	m = send(m, positionMsg{position: geolocation.Position{Longitude: 100, Latitude: 14}})

	if m.Session().Snapshot().Updating {
		t.Error("without a namer there is no lookup in progress")
	}
	if _, ok := m.mapv.UserPosition(); !ok {
		t.Error("user marker should exist")
	}
}

func TestModel_PositionError(t *testing.T) {
	m, _ := loadedModel(t)
	m = send(m, positionErrMsg{err: geolocation.ErrUnavailable})

	if m.State() != StateDisplay {
		t.Errorf("a location error should not leave the display, got %v", m.state)
	}
	if m.Session().Snapshot().Coords != nil {
		t.Error("no coords should be recorded")
	}
}

func TestModel_MyLocationUnknown(t *testing.T) {
	m, _ := loadedModel(t)
	m = keys(m, "g")

	if m.status != "Location not available yet" {
		t.Errorf("status = %q", m.status)
	}
	if m.mapv.Flying() {
		t.Error("nothing to fly to")
	}
}

func TestModel_FlyTickEndsFlight(t *testing.T) {
	m, _ := loadedModel(t)
	m = send(m, positionMsg{position: geolocation.Position{Longitude: 100.5, Latitude: 13.7}})
	if !m.mapv.Flying() {
		t.Fatal("expected a flight")
	}

	updated, cmd := m.Update(flyTickMsg(time.Now().Add(10 * time.Second)))
	m = updated.(Model)
	if m.mapv.Flying() {
		t.Error("flight should be finished")
	}
	if cmd != nil {
		t.Error("no further ticks once landed")
	}
	if got := m.mapv.Viewport().Zoom; got != 9 {
		t.Errorf("zoom = %v, want 9", got)
	}
}

func TestModel_RefreshKeepsAlerts(t *testing.T) {
	m, client := loadedModel(t)
	m = keys(m, "n", "enter")
	m = typeText(m, "Smoke")
	m = keys(m, "enter")

	updated, cmd := m.Update(RefreshMsg{})
	m = updated.(Model)
	if !m.refreshing {
		t.Error("refresh should flag refreshing")
	}
	if cmd == nil {
		t.Fatal("refresh should fetch")
	}

	m = send(m, fetchFeatures(context.Background(), client, "hotspots")())
	if m.refreshing {
		t.Error("refreshing should clear")
	}
	if m.store.Len() != 1 {
		t.Errorf("alerts after refresh = %d, want 1", m.store.Len())
	}
	if client.calls != 2 {
		t.Errorf("GetFeatures calls = %d, want 2", client.calls)
	}
}

func TestModel_ReportHover(t *testing.T) {
	m, _ := loadedModel(t)
	m = keys(m, "r")

	if m.focus != FocusReport {
		t.Fatalf("focus = %v, want FocusReport", m.focus)
	}
	if m.reportHover != -1 {
		t.Errorf("reportHover = %d, want -1", m.reportHover)
	}
	m = keys(m, "right")
	if m.reportHover != 0 {
		t.Errorf("reportHover = %d, want 0", m.reportHover)
	}
	m = keys(m, "right", "right")
	if m.reportHover != 1 {
		t.Errorf("reportHover = %d, want 1 (last bucket)", m.reportHover)
	}
}

func TestModel_ExportNotConfigured(t *testing.T) {
	m, _ := loadedModel(t)
	m = keys(m, "e")

	if m.status != "Export is not configured" {
		t.Errorf("status = %q", m.status)
	}
}

func TestModel_Quit(t *testing.T) {
	m, _ := loadedModel(t)

	updated, cmd := m.Update(key("q"))
	m = updated.(Model)
	if cmd == nil {
		t.Fatal("q should return a quit command")
	}
	if !m.Session().Closed() {
		t.Error("quit should close the session")
	}
	if !m.mapv.Closed() {
		t.Error("quit should release the map")
	}
	if m.ctx.Err() == nil {
		t.Error("quit should cancel background work")
	}
}

func TestModel_CtrlC_Quits(t *testing.T) {
	m := newTestModel(t, &mockFeatureClient{})

	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyCtrlC})
	if cmd == nil {
		t.Error("Ctrl+C should return a quit command")
	}
}
