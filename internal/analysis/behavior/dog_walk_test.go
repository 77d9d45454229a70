package behavior

import (
	"testing"
	"time"

	"github.com/jengzang/records-activity-go/internal/analysis/analysistest"
	"github.com/jengzang/records-activity-go/internal/models"
)

func TestDogWalkLoopFromHome(t *testing.T) {
	home := analysistest.Location("home", models.CategoryHome, homeLat, homeLon, 50)
	day := newDay(t, "2024-06-04", home)
	fixes := analysistest.NewTrack(analysistest.At(2024, 6, 4, 7, 0), homeLat, homeLon).
		Fix(0).
		Stay(30*time.Minute, 5*time.Minute).
		Move(0, 1.2, 15*time.Minute, time.Minute).
		Stay(2*time.Minute, time.Minute).
		Move(180, 1.2, 15*time.Minute, time.Minute).
		Stay(time.Hour, 5*time.Minute).
		Fixes()

	got := NewDogWalkAnalyzer().Analyze(day, fixes)
	if len(got) != 1 {
		t.Fatalf("got %d walks, want 1", len(got))
	}
	s := got[0]
	if s.Confidence != models.ConfidenceConfirmed {
		t.Errorf("confidence = %s (%.3f), want CONFIRMED", s.Confidence, s.ConfidenceScore)
	}
	d := s.Details.DogWalk
	if !d.RoundTrip || !d.FromHome || d.Pauses != 1 {
		t.Errorf("details = %+v, want a round trip from home with one pause", d)
	}
	if s.LocationName != "home" {
		t.Errorf("LocationName = %q, want home", s.LocationName)
	}
}

func TestDogWalkSkipsJourneysBetweenPlaces(t *testing.T) {
	home := analysistest.Location("home", models.CategoryHome, homeLat, homeLon, 50)
	gymAt := offset(0, 1500)
	gym := analysistest.Location("gym", models.CategoryFitness, gymAt.Lat, gymAt.Lon, 50)
	day := newDay(t, "2024-06-04", home, gym)
	fixes := analysistest.NewTrack(analysistest.At(2024, 6, 4, 7, 0), homeLat, homeLon).
		Fix(0).
		MoveTo(gymAt.Lat, gymAt.Lon, 1.2, time.Minute).
		Stay(time.Hour, 5*time.Minute).
		Fixes()

	if got := NewDogWalkAnalyzer().Analyze(day, fixes); len(got) != 0 {
		t.Errorf("got %d walks for a walk to the gym, want 0", len(got))
	}
}
