package profile

import (
	"encoding/json"
	"strings"
	"testing"
)

func TestParseClockTime(t *testing.T) {
	tests := []struct {
		in      string
		want    ClockTime
		wantErr bool
	}{
		{in: "06:00", want: 360},
		{in: "17:30", want: 1050},
		{in: "00:00", want: 0},
		{in: "23:59:00", want: 1439},
		{in: "24:00", wantErr: true},
		{in: "7am", wantErr: true},
		{in: "12:60", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseClockTime(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseClockTime(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			if !tt.wantErr && got != tt.want {
				t.Errorf("ParseClockTime(%q) = %d, want %d", tt.in, got, tt.want)
			}
		})
	}
}

func TestClockTimeJSON(t *testing.T) {
	var p struct {
		Wake ClockTime  `json:"wake"`
		Work *ClockTime `json:"work,omitempty"`
	}
	if err := json.Unmarshal([]byte(`{"wake":"06:05","work":"09:00"}`), &p); err != nil {
		t.Fatalf("Unmarshal failed: %v", err)
	}
	if p.Wake.String() != "06:05" || p.Work == nil || *p.Work != 540 {
		t.Errorf("Unexpected decode: %+v", p)
	}
	if err := json.Unmarshal([]byte(`{"wake":"noon"}`), &p); err == nil {
		t.Error("Expected error for invalid clock time")
	}
}

func TestProfileValidate(t *testing.T) {
	valid := func() Profile {
		return Profile{
			UserID: "u1", Goal: GoalLose, Diet: DietVegetarian, Equipment: EquipmentHome,
			WakeTime: MustClockTime("06:00"), SleepTime: MustClockTime("22:00"),
			City: "Nairobi", Country: "Kenya",
		}
	}

	p := valid()
	if err := p.Validate(); err != nil {
		t.Fatalf("Expected valid profile, got %v", err)
	}

	p = valid()
	p.Goal = "bulk"
	p.Diet = "keto"
	work := MustClockTime("09:00")
	p.WorkStart = &work
	err := p.Validate()
	if err == nil {
		t.Fatal("Expected validation error")
	}
	for _, want := range []string{"goal_type", "diet_type", "work_start"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("Expected error to mention %q, got %v", want, err)
		}
	}
}
