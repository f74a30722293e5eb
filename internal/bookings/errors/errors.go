package errors

import "errors"

var (
	ErrNotFound = errors.New("booking not found")

	ErrInvalidID = errors.New("invalid booking ID format")

	// ErrSlotTaken is returned when storage rejects a second active claim on one slot.
	ErrSlotTaken = errors.New("time slot is already booked")

	ErrSlotLocked = errors.New("time slot is being booked by another request")
)

// SlotConflictMessage is the customer-facing message for every slot conflict.
const SlotConflictMessage = "Time slot is already booked. Please choose a different time."
