package babytrack

import "fmt"

// EventKind identifies one of the four tracked event kinds.
// Feeding, sleep, and crying are session kinds (start/end pair);
// diaper changes are instant events with a single point in time.
type EventKind string

// Tracked event kinds.
const (
	KindFeeding EventKind = "feeding"
	KindSleep   EventKind = "sleep"
	KindCrying  EventKind = "crying"
	KindDiaper  EventKind = "diaper"
)

// IsSession reports whether the kind carries an open/closed lifecycle.
func (k EventKind) IsSession() bool {
	switch k {
	case KindFeeding, KindSleep, KindCrying:
		return true
	}
	return false
}

// ParseEventKind converts a stored string into an EventKind.
func ParseEventKind(s string) (EventKind, error) {
	switch EventKind(s) {
	case KindFeeding, KindSleep, KindCrying, KindDiaper:
		return EventKind(s), nil
	}
	return "", fmt.Errorf("unknown event kind %q", s)
}

// FeedingType classifies how a feeding was given.
// The string value is the canonical persisted representation on every
// storage backend.
type FeedingType string

// Feeding types.
const (
	FeedingBreast FeedingType = "breast"
	FeedingBottle FeedingType = "bottle"
	FeedingSolid  FeedingType = "solid"
)

// ParseFeedingType converts a stored string into a FeedingType.
func ParseFeedingType(s string) (FeedingType, error) {
	switch FeedingType(s) {
	case FeedingBreast, FeedingBottle, FeedingSolid:
		return FeedingType(s), nil
	}
	return "", fmt.Errorf("unknown feeding type %q", s)
}

// DiaperType classifies a diaper change.
type DiaperType string

// Diaper types.
const (
	DiaperWet   DiaperType = "wet"
	DiaperDirty DiaperType = "dirty"
	DiaperBoth  DiaperType = "both"
)

// ParseDiaperType converts a stored string into a DiaperType.
func ParseDiaperType(s string) (DiaperType, error) {
	switch DiaperType(s) {
	case DiaperWet, DiaperDirty, DiaperBoth:
		return DiaperType(s), nil
	}
	return "", fmt.Errorf("unknown diaper type %q", s)
}

// CryingReason is a cause of crying, either predicted by the Predictor
// or reported by the caregiver when the episode ends.
type CryingReason string

// Crying reasons. The declaration order (hungry, diaper, attention) is
// the tie-break order used by the Predictor.
const (
	ReasonHungry    CryingReason = "hungry"
	ReasonDiaper    CryingReason = "diaper"
	ReasonAttention CryingReason = "attention"
	ReasonUnknown   CryingReason = "unknown"
)

// ParseCryingReason converts a stored string into a CryingReason.
func ParseCryingReason(s string) (CryingReason, error) {
	switch CryingReason(s) {
	case ReasonHungry, ReasonDiaper, ReasonAttention, ReasonUnknown:
		return CryingReason(s), nil
	}
	return "", fmt.Errorf("unknown crying reason %q", s)
}
