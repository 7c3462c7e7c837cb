package cwa

import (
	"io"
	"log/slog"
	"reflect"
	"testing"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testPayload(locs ...Location) *Payload {
	p := &Payload{}
	p.Root.Resources.Resource.Data.AgrWeatherForecasts.WeatherForecasts.Location = locs
	return p
}

func makeLocation(name, date, maxT, minT, wx string) Location {
	return Location{
		Name: name,
		Elements: WeatherElements{
			MaxT: Element{Daily: []Daily{{Temperature: maxT, DataDate: date}}},
			MinT: Element{Daily: []Daily{{Temperature: minT}}},
			Wx:   Element{Daily: []Daily{{Weather: wx}}},
		},
	}
}

func TestParseTemperature(t *testing.T) {
	tests := []struct {
		input string
		want  *float64
	}{
		{"23.5", ptr(23.5)},
		{"25", ptr(25.0)},
		{"-3.2", ptr(-3.2)},
		{"-", nil},
		{"", nil},
		{"abc", nil},
		{"23.5°C", nil},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got := ParseTemperature(tt.input)
			if (got == nil) != (tt.want == nil) {
				t.Fatalf("ParseTemperature(%q) = %v, want %v", tt.input, got, tt.want)
			}
			if got != nil && *got != *tt.want {
				t.Errorf("ParseTemperature(%q) = %v, want %v", tt.input, *got, *tt.want)
			}
		})
	}
}

func ptr(v float64) *float64 { return &v }

func TestLocations_Sorted(t *testing.T) {
	// Source order is not lexicographic; output must be.
	p := testPayload(
		makeLocation("高雄市", "2025-12-03", "28", "22", "晴天"),
		makeLocation("臺北市", "2025-12-03", "25", "18", "多雲時晴"),
		makeLocation("臺中市", "2025-12-03", "24", "16", "晴天"),
	)

	got := Locations(p, discardLogger())
	want := []string{"臺中市", "臺北市", "高雄市"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Locations = %v, want %v", got, want)
	}
}

func TestLocations_SkipsEmptyNames(t *testing.T) {
	p := testPayload(
		makeLocation("臺北市", "2025-12-03", "25", "18", "多雲時晴"),
		makeLocation("", "2025-12-03", "20", "10", "陰"),
	)

	got := Locations(p, discardLogger())
	if !reflect.DeepEqual(got, []string{"臺北市"}) {
		t.Errorf("Locations = %v, want [臺北市]", got)
	}
}

func TestLocations_MissingPath(t *testing.T) {
	tests := []struct {
		name    string
		payload *Payload
	}{
		{"nil payload", nil},
		{"empty payload", &Payload{}},
		{"no locations", testPayload()},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Locations(tt.payload, discardLogger()); len(got) != 0 {
				t.Errorf("Locations = %v, want empty", got)
			}
		})
	}
}

func TestExtract(t *testing.T) {
	p := testPayload(makeLocation("臺北市", "2025-12-03", "25", "18", "多雲時晴"))

	f, ok := Extract(p, "臺北市")
	if !ok {
		t.Fatal("Extract: location not found")
	}
	if f.Location != "臺北市" {
		t.Errorf("location = %q, want 臺北市", f.Location)
	}
	if f.Date != "2025-12-03" {
		t.Errorf("date = %q, want 2025-12-03", f.Date)
	}
	if f.MaxTemp == nil || *f.MaxTemp != 25.0 {
		t.Errorf("max_temp = %v, want 25.0", f.MaxTemp)
	}
	if f.MinTemp == nil || *f.MinTemp != 18.0 {
		t.Errorf("min_temp = %v, want 18.0", f.MinTemp)
	}
	if f.Weather != "多雲時晴" {
		t.Errorf("weather = %q, want 多雲時晴", f.Weather)
	}
}

func TestExtract_NotFound(t *testing.T) {
	p := testPayload(makeLocation("臺北市", "2025-12-03", "25", "18", "多雲時晴"))

	if _, ok := Extract(p, "基隆市"); ok {
		t.Error("expected not-found for unknown location")
	}
	if _, ok := Extract(&Payload{}, "臺北市"); ok {
		t.Error("expected not-found for empty payload")
	}
}

func TestExtract_MissingElements(t *testing.T) {
	// Location present but with no weather elements at all.
	p := testPayload(Location{Name: "臺北市"})

	f, ok := Extract(p, "臺北市")
	if !ok {
		t.Fatal("Extract: location not found")
	}
	if f.MaxTemp != nil || f.MinTemp != nil {
		t.Errorf("temps = %v/%v, want nil/nil", f.MaxTemp, f.MinTemp)
	}
	if f.Date != "-" {
		t.Errorf("date = %q, want -", f.Date)
	}
	if f.Weather != "-" {
		t.Errorf("weather = %q, want -", f.Weather)
	}
}

func TestExtract_DateFromMaxTOnly(t *testing.T) {
	// MinT carries a different dataDate; the view must use MaxT's.
	loc := makeLocation("臺北市", "2025-12-03", "25", "18", "多雲時晴")
	loc.Elements.MinT.Daily[0].DataDate = "2025-12-04"
	p := testPayload(loc)

	f, _ := Extract(p, "臺北市")
	if f.Date != "2025-12-03" {
		t.Errorf("date = %q, want 2025-12-03 (from MaxT)", f.Date)
	}
}

func TestExtract_FirstMatchWins(t *testing.T) {
	p := testPayload(
		makeLocation("臺北市", "2025-12-03", "25", "18", "多雲時晴"),
		makeLocation("臺北市", "2025-12-04", "30", "20", "晴天"),
	)

	f, _ := Extract(p, "臺北市")
	if f.Date != "2025-12-03" {
		t.Errorf("date = %q, want first entry's 2025-12-03", f.Date)
	}
}

func TestExtract_UnparseableTemperature(t *testing.T) {
	p := testPayload(makeLocation("臺北市", "2025-12-03", "-", "n/a", "多雲時晴"))

	f, _ := Extract(p, "臺北市")
	if f.MaxTemp != nil {
		t.Errorf("max_temp = %v, want nil for %q", f.MaxTemp, "-")
	}
	if f.MinTemp != nil {
		t.Errorf("min_temp = %v, want nil for %q", f.MinTemp, "n/a")
	}
}
