package validation

import (
	"testing"

	"github.com/jengzang/records-activity-go/internal/apperr"
)

type dayRequest struct {
	Date  string  `json:"date" validate:"required,datetime=2006-01-02"`
	Clock string  `json:"time" validate:"omitempty,datetime=15:04"`
	Lat   float64 `json:"lat" validate:"latitude"`
	Days  int     `json:"days" validate:"min=1,max=366"`
}

func TestStruct(t *testing.T) {
	tests := []struct {
		name  string
		req   dayRequest
		field string
	}{
		{"valid", dayRequest{Date: "2024-03-09", Clock: "07:30", Lat: 51.5, Days: 7}, ""},
		{"missing date", dayRequest{Days: 1}, "date"},
		{"bad date", dayRequest{Date: "09/03/2024", Days: 1}, "date"},
		{"bad clock", dayRequest{Date: "2024-03-09", Clock: "7pm", Days: 1}, "time"},
		{"bad latitude", dayRequest{Date: "2024-03-09", Lat: 123, Days: 1}, "lat"},
		{"days too large", dayRequest{Date: "2024-03-09", Days: 400}, "days"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Struct(tt.req)
			if tt.field == "" {
				if err != nil {
					t.Fatalf("Struct() error = %v", err)
				}
				return
			}
			ve, ok := err.(*apperr.ValidationError)
			if !ok {
				t.Fatalf("Struct() error = %v, want *apperr.ValidationError", err)
			}
			if ve.Field != tt.field {
				t.Errorf("Field = %q, want %q", ve.Field, tt.field)
			}
		})
	}
}
