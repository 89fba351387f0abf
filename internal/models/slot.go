package models

import (
	"errors"
	"strings"
)

// SlotName identifies one of the two upload positions.
type SlotName string

const (
	SlotBrochure  SlotName = "brochure"
	SlotFloorPlan SlotName = "floorPlan"
)

// ErrUnknownSlot is returned when a slot name does not match either slot.
var ErrUnknownSlot = errors.New("unknown slot")

// Slots lists the slots in display order.
var Slots = []SlotName{SlotBrochure, SlotFloorPlan}

// FieldName is the multipart field the slot's file is sent under.
func (s SlotName) FieldName() string {
	if s == SlotFloorPlan {
		return "floor_plan"
	}
	return string(s)
}

// Label is the heading shown above the slot's drop target.
func (s SlotName) Label() string {
	if s == SlotFloorPlan {
		return "Floor Plan (Optional)"
	}
	return "Property Brochure (Required)"
}

// Accept is the advisory file-type hint for the slot. It is never enforced.
func (s SlotName) Accept() string {
	if s == SlotFloorPlan {
		return ".pdf,.jpg,.jpeg,.png"
	}
	return ".pdf,.docx,.jpg,.jpeg,.png"
}

// Required reports whether a submit needs this slot to be filled.
func (s SlotName) Required() bool {
	return s == SlotBrochure
}

// ParseSlot accepts the slot name or its multipart field name, case-insensitively.
func ParseSlot(raw string) (SlotName, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "brochure":
		return SlotBrochure, nil
	case "floorplan", "floor_plan", "floor-plan":
		return SlotFloorPlan, nil
	default:
		return "", ErrUnknownSlot
	}
}
