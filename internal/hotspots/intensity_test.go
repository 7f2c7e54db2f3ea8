package hotspots

import "testing"

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		frp  float64
		ok   bool
		want Bucket
		kind Kind
	}{
		{"absent", 0, false, BucketUnknown, KindUnknown},
		{"zero", 0, true, BucketVeryLow, KindSmoke},
		{"just below 2", 1.9, true, BucketVeryLow, KindSmoke},
		{"exactly 2", 2.0, true, BucketLow, KindSmoke},
		{"just below 4", 3.9, true, BucketLow, KindSmoke},
		{"exactly 4", 4.0, true, BucketModerate, KindFire},
		{"exactly 6", 6.0, true, BucketElevated, KindFire},
		{"exactly 8", 8.0, true, BucketHigh, KindFire},
		{"just below 12", 11.99, true, BucketHigh, KindFire},
		{"exactly 12", 12.0, true, BucketExtreme, KindFire},
		{"huge", 500, true, BucketExtreme, KindFire},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Classify(tt.frp, tt.ok)
			if got.Bucket != tt.want {
				t.Errorf("Classify(%v, %v).Bucket = %v, want %v", tt.frp, tt.ok, got.Bucket, tt.want)
			}
			if got.Kind != tt.kind {
				t.Errorf("Classify(%v, %v).Kind = %v, want %v", tt.frp, tt.ok, got.Kind, tt.kind)
			}
			if got.Color == "" || got.Glyph == "" {
				t.Errorf("Classify(%v, %v) missing color or glyph: %+v", tt.frp, tt.ok, got)
			}
		})
	}
}

func TestBucketsHaveDistinctColors(t *testing.T) {
	seen := map[string]Bucket{}
	for _, b := range Buckets {
		c := StyleOf(b).Color
		if other, dup := seen[c]; dup {
			t.Errorf("buckets %v and %v share color %s", other, b, c)
		}
		seen[c] = b
	}
}
