package aqi

import "testing"

func TestComputePM25(t *testing.T) {
	tests := []struct {
		name          string
		concentration float64
		wantAQI       int
		wantOK        bool
	}{
		{"zero", 0.0, 0, true},
		{"good upper bound", 12.0, 50, true},
		{"moderate lower bound", 12.1, 51, true},
		{"truncated into good", 12.04, 50, true},
		{"moderate upper bound", 35.4, 100, true},
		{"usg lower bound", 35.5, 101, true},
		{"unhealthy lower bound", 55.5, 151, true},
		{"very unhealthy lower bound", 150.5, 201, true},
		{"hazardous lower bound", 250.5, 301, true},
		{"table maximum", 500.4, 500, true},
		{"above table", 500.5, 0, false},
		{"negative", -1.0, 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := Compute("PM25", tt.concentration)
			if ok != tt.wantOK {
				t.Fatalf("Compute(PM25, %v) ok = %v, want %v", tt.concentration, ok, tt.wantOK)
			}
			if ok && got != tt.wantAQI {
				t.Errorf("Compute(PM25, %v) = %d, want %d", tt.concentration, got, tt.wantAQI)
			}
		})
	}
}

func TestComputePM10(t *testing.T) {
	tests := []struct {
		concentration float64
		wantAQI       int
	}{
		{54, 50},
		{55, 51},
		{154, 100},
		{155, 101},
		{354, 200},
	}
	for _, tt := range tests {
		got, ok := Compute("PM10", tt.concentration)
		if !ok {
			t.Fatalf("Compute(PM10, %v) unexpectedly undefined", tt.concentration)
		}
		if got != tt.wantAQI {
			t.Errorf("Compute(PM10, %v) = %d, want %d", tt.concentration, got, tt.wantAQI)
		}
	}
}

func TestComputeUnknownPollutant(t *testing.T) {
	if _, ok := Compute("HCHO", 10); ok {
		t.Error("Compute(HCHO) should be undefined, no breakpoint table exists")
	}
}

func TestComposite(t *testing.T) {
	aqi, dominant, ok := Composite(map[string]float64{
		"PM25": 12.0, // 50
		"PM10": 155,  // 101
		"O3":   30,   // sub 28
	})
	if !ok {
		t.Fatal("Composite unexpectedly undefined")
	}
	if aqi != 101 || dominant != "PM10" {
		t.Errorf("Composite = (%d, %s), want (101, PM10)", aqi, dominant)
	}
}

func TestCompositeAllUndefined(t *testing.T) {
	if _, _, ok := Composite(map[string]float64{"PM25": 9999}); ok {
		t.Error("Composite of out-of-range inputs should be undefined")
	}
}

func TestCategories(t *testing.T) {
	tests := []struct {
		aqi      int
		category string
	}{
		{0, "Good"},
		{50, "Good"},
		{51, "Moderate"},
		{100, "Moderate"},
		{101, "Unhealthy for Sensitive Groups"},
		{150, "Unhealthy for Sensitive Groups"},
		{151, "Unhealthy"},
		{201, "Very Unhealthy"},
		{301, "Hazardous"},
		{500, "Hazardous"},
	}
	for _, tt := range tests {
		if got := Category(tt.aqi); got != tt.category {
			t.Errorf("Category(%d) = %q, want %q", tt.aqi, got, tt.category)
		}
	}
}
