package errors

import "errors"

// Rule messages stay in the product's wording; the HTTP layer and tests
// branch on kinds, never on message text.
var (
	ErrMeetingIDRequired     = errors.New("meeting_id est obligatoire")
	ErrMotionIDRequired      = errors.New("motion_id est obligatoire")
	ErrMemberIDRequired      = errors.New("member_id est obligatoire")
	ErrInvalidBallotValue    = errors.New("valeur de vote invalide")
	ErrInvalidAttendanceMode = errors.New("mode de présence invalide")
	ErrInvalidTargetStatus   = errors.New("statut cible invalide")
	ErrProxySourceRequired   = errors.New("proxy_source_member_id est obligatoire")
	ErrProxySourceInvalid    = errors.New("proxy_source_member_id invalide")

	ErrMeetingNotFound     = errors.New("séance introuvable")
	ErrMotionNotFound      = errors.New("motion_not_found")
	ErrMemberNotFound      = errors.New("Membre inconnu")
	ErrMemberOutsideTenant = errors.New("membre hors tenant")
	ErrProxyMemberNotFound = errors.New("Mandataire inconnu")

	ErrMeetingArchived       = errors.New("la séance est archivée")
	ErrMeetingNotLive        = errors.New("la séance n'est pas en cours")
	ErrMeetingValidated      = errors.New("la séance est déjà validée")
	ErrMotionNotOpen         = errors.New("la motion n'est pas ouverte au vote")
	ErrMemberInactive        = errors.New("Membre inactif")
	ErrMemberNotPresent      = errors.New("membre non enregistré comme présent")
	ErrProxyMemberInactive   = errors.New("Mandataire inactif")
	ErrProxyMemberNotPresent = errors.New("Mandataire non enregistré comme présent")
	ErrNoActiveProxy         = errors.New("Aucune procuration active")
	ErrInvalidVoteWeight     = errors.New("Poids de vote invalide")
	ErrTransitionBlocked     = errors.New("transition bloquée")
	// ErrMeetingUnavailable is the post-lock race: the meeting status changed
	// between validation and the write. Callers retry, the engine does not.
	ErrMeetingUnavailable = errors.New("séance non disponible")

	ErrStorageEmptyResult = errors.New("aucune ligne retournée par le stockage")
)

type Kind string

const (
	KindInvalidArgument Kind = "invalid_argument"
	KindNotFound        Kind = "not_found"
	KindConflict        Kind = "conflict"
	KindInternal        Kind = "internal"
	KindUnknown         Kind = "unknown"
)

// KindOf classifies an engine error, following wrapped chains.
func KindOf(err error) Kind {
	switch {
	case err == nil:
		return KindUnknown
	case errors.Is(err, ErrMeetingIDRequired),
		errors.Is(err, ErrMotionIDRequired),
		errors.Is(err, ErrMemberIDRequired),
		errors.Is(err, ErrInvalidBallotValue),
		errors.Is(err, ErrInvalidAttendanceMode),
		errors.Is(err, ErrInvalidTargetStatus),
		errors.Is(err, ErrProxySourceRequired),
		errors.Is(err, ErrProxySourceInvalid):
		return KindInvalidArgument
	case errors.Is(err, ErrMeetingNotFound),
		errors.Is(err, ErrMotionNotFound),
		errors.Is(err, ErrMemberNotFound),
		errors.Is(err, ErrMemberOutsideTenant),
		errors.Is(err, ErrProxyMemberNotFound):
		return KindNotFound
	case errors.Is(err, ErrMeetingArchived),
		errors.Is(err, ErrMeetingNotLive),
		errors.Is(err, ErrMeetingValidated),
		errors.Is(err, ErrMotionNotOpen),
		errors.Is(err, ErrMemberInactive),
		errors.Is(err, ErrMemberNotPresent),
		errors.Is(err, ErrProxyMemberInactive),
		errors.Is(err, ErrProxyMemberNotPresent),
		errors.Is(err, ErrNoActiveProxy),
		errors.Is(err, ErrInvalidVoteWeight),
		errors.Is(err, ErrTransitionBlocked),
		errors.Is(err, ErrMeetingUnavailable):
		return KindConflict
	case errors.Is(err, ErrStorageEmptyResult):
		return KindInternal
	default:
		return KindUnknown
	}
}
