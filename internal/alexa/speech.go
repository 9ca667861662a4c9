package alexa

import (
	"errors"
	"fmt"

	"nexttram.org/internal/itinerary"
	"nexttram.org/internal/schedule"
)

const (
	welcomeText     = "Où voulez-vous aller ?"
	helpText        = "Demandez par exemple quand partir de Boulingrin pour aller à Technopôle. Vous pouvez aussi enregistrer un lieu de départ ou une destination par défaut."
	goodbyeText     = "À bientôt."
	malformedText   = "Désolé, une erreur est survenue lors de la lecture de votre requête"
	unsupportedText = "Désolé, je ne suis pas capable de traiter cette requête"
	internalText    = "Désolé, une erreur est survenue."
)

// Minutes renders a duration in minutes, singular for 0 and 1.
func Minutes(n int) string {
	if n <= 1 {
		return fmt.Sprintf("%d minute", n)
	}
	return fmt.Sprintf("%d minutes", n)
}

// RenderOutcome phrases a successful engine outcome.
func RenderOutcome(o itinerary.Outcome) string {
	switch o.Kind {
	case itinerary.OutcomeItinerary:
		return renderItinerary(o.Itinerary)
	case itinerary.OutcomeDepartureSaved:
		text := fmt.Sprintf("Votre lieu de départ par défaut est maintenant %s. Vous ne devrez plus le préciser à chaque fois.", o.Stop.Name)
		if o.LeadMinutes > 0 {
			text += fmt.Sprintf(" Je compterai %s pour vous y rendre.", Minutes(o.LeadMinutes))
		}
		return text
	case itinerary.OutcomeDestinationSaved:
		return fmt.Sprintf("Votre destination par défaut est maintenant %s.", o.Stop.Name)
	case itinerary.OutcomeDefaultsCleared:
		return "Vos préférences ont été supprimées."
	}
	return internalText
}

func renderItinerary(it itinerary.Itinerary) string {
	from, to := it.Departure.Name, it.Destination.Name
	switch {
	case !it.Upcoming:
		return fmt.Sprintf("Il n'y a pas de prochain métro de %s vers %s.", from, to)
	case it.Missed && it.LeadMinutes == 0:
		return fmt.Sprintf("Le métro de %s vers %s part maintenant.", from, to)
	case it.Missed:
		return fmt.Sprintf("Le prochain métro de %s vers %s part dans %s, vous n'aurez pas le temps de l'attraper avec vos %s de trajet.",
			from, to, Minutes(it.RawMinutes), Minutes(it.LeadMinutes))
	case it.LeadMinutes == 0:
		return fmt.Sprintf("Le prochain métro de %s vers %s part dans %s.", from, to, Minutes(it.RawMinutes))
	}
	return fmt.Sprintf("Le prochain métro de %s vers %s part dans %s. Vous devez partir dans %s.",
		from, to, Minutes(it.RawMinutes), Minutes(it.WaitMinutes))
}

// RenderError phrases an engine failure. Unknown failures get a generic apology.
func RenderError(err error) string {
	switch {
	case errors.Is(err, itinerary.ErrMissingDeparture):
		return "Lieu de départ manquant."
	case errors.Is(err, itinerary.ErrMissingDestination):
		return "Destination manquante."
	case errors.Is(err, itinerary.ErrUnknownStop):
		return "Je ne connais pas cet arrêt."
	case errors.Is(err, itinerary.ErrInvalidLeadTime):
		return "Je n'ai pas compris le temps de trajet."
	case errors.Is(err, itinerary.ErrUnsupportedIntent):
		return unsupportedText
	case errors.Is(err, schedule.ErrNetworkFailure):
		return "Le service des horaires ne répond pas. Réessayez dans un instant."
	case errors.Is(err, schedule.ErrUnavailable):
		return "Les horaires sont indisponibles pour le moment."
	}
	return internalText
}
