package vallaris

import (
	gojson "github.com/goccy/go-json"
	"github.com/paulmach/orb/geojson"
)

// goccyCodec routes orb's geojson encoding through goccy/go-json
type goccyCodec struct{}

func (goccyCodec) Marshal(v interface{}) ([]byte, error)      { return gojson.Marshal(v) }
func (goccyCodec) Unmarshal(data []byte, v interface{}) error { return gojson.Unmarshal(data, v) }

func init() {
	geojson.CustomJSONMarshaler = goccyCodec{}
	geojson.CustomJSONUnmarshaler = goccyCodec{}
}
