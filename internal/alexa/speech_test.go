package alexa

import (
	"fmt"
	"testing"

	"nexttram.org/internal/itinerary"
	"nexttram.org/internal/schedule"
)

func TestMinutes(t *testing.T) {
	for n, want := range map[int]string{0: "0 minute", 1: "1 minute", 2: "2 minutes", 12: "12 minutes"} {
		if got := Minutes(n); got != want {
			t.Errorf("Minutes(%d) = %q, want %q", n, got, want)
		}
	}
}

func TestRenderOutcome(t *testing.T) {
	from := itinerary.StopRef{ID: 101, Name: "Boulingrin"}
	to := itinerary.StopRef{ID: 109, Name: "Technopôle"}

	tests := []struct {
		name    string
		outcome itinerary.Outcome
		want    string
	}{
		{
			name: "no lead",
			outcome: itinerary.Outcome{Kind: itinerary.OutcomeItinerary, Itinerary: itinerary.Itinerary{
				Departure: from, Destination: to, Upcoming: true, RawMinutes: 12, WaitMinutes: 12,
			}},
			want: "Le prochain métro de Boulingrin vers Technopôle part dans 12 minutes.",
		},
		{
			name: "with lead",
			outcome: itinerary.Outcome{Kind: itinerary.OutcomeItinerary, Itinerary: itinerary.Itinerary{
				Departure: from, Destination: to, Upcoming: true, RawMinutes: 15, LeadMinutes: 10, WaitMinutes: 5,
			}},
			want: "Le prochain métro de Boulingrin vers Technopôle part dans 15 minutes. Vous devez partir dans 5 minutes.",
		},
		{
			name: "missed",
			outcome: itinerary.Outcome{Kind: itinerary.OutcomeItinerary, Itinerary: itinerary.Itinerary{
				Departure: from, Destination: to, Upcoming: true, RawMinutes: 10, LeadMinutes: 10, Missed: true,
			}},
			want: "Le prochain métro de Boulingrin vers Technopôle part dans 10 minutes, vous n'aurez pas le temps de l'attraper avec vos 10 minutes de trajet.",
		},
		{
			name: "departing now",
			outcome: itinerary.Outcome{Kind: itinerary.OutcomeItinerary, Itinerary: itinerary.Itinerary{
				Departure: from, Destination: to, Upcoming: true, Missed: true,
			}},
			want: "Le métro de Boulingrin vers Technopôle part maintenant.",
		},
		{
			name: "nothing scheduled",
			outcome: itinerary.Outcome{Kind: itinerary.OutcomeItinerary, Itinerary: itinerary.Itinerary{
				Departure: from, Destination: to,
			}},
			want: "Il n'y a pas de prochain métro de Boulingrin vers Technopôle.",
		},
		{
			name:    "departure saved",
			outcome: itinerary.Outcome{Kind: itinerary.OutcomeDepartureSaved, Stop: from},
			want:    "Votre lieu de départ par défaut est maintenant Boulingrin. Vous ne devrez plus le préciser à chaque fois.",
		},
		{
			name:    "departure saved with lead",
			outcome: itinerary.Outcome{Kind: itinerary.OutcomeDepartureSaved, Stop: from, LeadMinutes: 1},
			want:    "Votre lieu de départ par défaut est maintenant Boulingrin. Vous ne devrez plus le préciser à chaque fois. Je compterai 1 minute pour vous y rendre.",
		},
		{
			name:    "destination saved",
			outcome: itinerary.Outcome{Kind: itinerary.OutcomeDestinationSaved, Stop: to},
			want:    "Votre destination par défaut est maintenant Technopôle.",
		},
		{
			name:    "cleared",
			outcome: itinerary.Outcome{Kind: itinerary.OutcomeDefaultsCleared},
			want:    "Vos préférences ont été supprimées.",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := RenderOutcome(tt.outcome); got != tt.want {
				t.Errorf("got  %q\nwant %q", got, tt.want)
			}
		})
	}
}

func TestRenderError(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{fmt.Errorf("resolve: %w", itinerary.ErrMissingDeparture), "Lieu de départ manquant."},
		{itinerary.ErrMissingDestination, "Destination manquante."},
		{itinerary.ErrUnknownStop, "Je ne connais pas cet arrêt."},
		{itinerary.ErrInvalidLeadTime, "Je n'ai pas compris le temps de trajet."},
		{itinerary.ErrUnsupportedIntent, unsupportedText},
		{schedule.ErrNetworkFailure, "Le service des horaires ne répond pas. Réessayez dans un instant."},
		{schedule.ErrUnavailable, "Les horaires sont indisponibles pour le moment."},
		{fmt.Errorf("boom"), internalText},
	}

	for _, tt := range tests {
		if got := RenderError(tt.err); got != tt.want {
			t.Errorf("RenderError(%v) = %q, want %q", tt.err, got, tt.want)
		}
	}
}
