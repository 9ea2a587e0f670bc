package types

import "testing"

func TestParseDirection(t *testing.T) {
	tests := []struct {
		input   string
		want    Direction
		wantErr bool
	}{
		{"up", DirectionUp, false},
		{"DOWN", DirectionDown, false},
		{" up ", DirectionUp, false},
		{"sideways", "", true},
		{"", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseDirection(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseDirection(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ParseDirection(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestDirectionDelta(t *testing.T) {
	if DirectionUp.Delta() != -1 {
		t.Errorf("up delta = %d, want -1", DirectionUp.Delta())
	}
	if DirectionDown.Delta() != 1 {
		t.Errorf("down delta = %d, want 1", DirectionDown.Delta())
	}
}

func TestTimelineEntityIsValid(t *testing.T) {
	for _, e := range []TimelineEntity{TimelineProject, TimelineDoc, TimelineFolder, TimelineEvent} {
		if !e.IsValid() {
			t.Errorf("%q should be valid", e)
		}
	}
	if TimelineEntity("chapter").IsValid() {
		t.Error("chapter should not be a valid timeline entity")
	}
}

func TestParseLinkKind(t *testing.T) {
	if k, err := ParseLinkKind("Character"); err != nil || k != LinkCharacter {
		t.Errorf("ParseLinkKind(Character) = %q, %v", k, err)
	}
	if _, err := ParseLinkKind("weapon"); err == nil {
		t.Error("expected error for unknown link kind")
	}
}

func TestEqualIDPtr(t *testing.T) {
	one, other := Int64Ptr(1), Int64Ptr(1)
	two := Int64Ptr(2)

	tests := []struct {
		name string
		a, b *int64
		want bool
	}{
		{"both nil", nil, nil, true},
		{"nil and set", nil, one, false},
		{"same value", one, other, true},
		{"different value", one, two, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := EqualIDPtr(tt.a, tt.b); got != tt.want {
				t.Errorf("EqualIDPtr() = %v, want %v", got, tt.want)
			}
		})
	}
}
