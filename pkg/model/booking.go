package model

import (
	"slices"
	"time"
)

const (
	StatusPending    = "pending"
	StatusConfirmed  = "confirmed"
	StatusInProgress = "in-progress"
	StatusCompleted  = "completed"
	StatusCancelled  = "cancelled"

	UrgencyNormal    = "normal"
	UrgencyUrgent    = "urgent"
	UrgencyEmergency = "emergency"

	LocationNairobiCBD      = "Nairobi CBD"
	LocationIndustrialArea  = "Industrial Area"
	LocationCustomerPremise = "Customer Location"

	PaymentCash         = "cash"
	PaymentMpesa        = "mpesa"
	PaymentCard         = "card"
	PaymentBankTransfer = "bank_transfer"
)

// Services lists the services a booking may request.
var Services = []string{
	"Fuel Injection Services",
	"Car Alarms & Security Systems",
	"Android Radios & Car Stereos",
	"Vehicle Tracking & Fleet Management",
	"4G Live Dash Camera Solutions",
	"Diesel Parts Supply",
	"General Consultation",
}

var Locations = []string{LocationNairobiCBD, LocationIndustrialArea, LocationCustomerPremise}

// ActiveStatuses are the statuses that hold a slot.
var ActiveStatuses = []string{StatusPending, StatusConfirmed, StatusInProgress}

var AllStatuses = []string{StatusPending, StatusConfirmed, StatusInProgress, StatusCompleted, StatusCancelled}

func IsActiveStatus(status string) bool {
	return slices.Contains(ActiveStatuses, status)
}

func IsKnownStatus(status string) bool {
	return slices.Contains(AllStatuses, status)
}

type VehicleInfo struct {
	Make         string `json:"make,omitempty" bson:"make,omitempty" validate:"omitempty,max=50"`
	Model        string `json:"model,omitempty" bson:"model,omitempty" validate:"omitempty,max=50"`
	Year         int    `json:"year,omitempty" bson:"year,omitempty" validate:"omitempty,vehicle_year"`
	Registration string `json:"registration,omitempty" bson:"registration,omitempty" validate:"omitempty,max=20"`
}

type Booking struct {
	ID            string       `json:"id,omitempty" bson:"_id,omitempty"`
	CustomerName  string       `json:"customer_name" bson:"customer_name" validate:"required,min=2,max=100"`
	CustomerEmail string       `json:"customer_email" bson:"customer_email" validate:"required,email"`
	CustomerPhone string       `json:"customer_phone" bson:"customer_phone" validate:"required,mobile_phone"`
	Service       string       `json:"service" bson:"service" validate:"required,booking_service"`
	VehicleInfo   *VehicleInfo `json:"vehicle_info,omitempty" bson:"vehicle_info,omitempty" validate:"omitempty"`
	PreferredDate Date         `json:"preferred_date" bson:"preferred_date" validate:"required,calendar_date"`
	PreferredTime string       `json:"preferred_time" bson:"preferred_time" validate:"required,booking_slot"`
	Urgency       string       `json:"urgency" bson:"urgency" validate:"required,oneof=normal urgent emergency"`
	Message       string       `json:"message,omitempty" bson:"message,omitempty" validate:"omitempty,max=500"`
	Status        string       `json:"status" bson:"status" validate:"required,oneof=pending confirmed in-progress completed cancelled"`
	EstimatedCost *float64     `json:"estimated_cost,omitempty" bson:"estimated_cost,omitempty" validate:"omitempty,gte=0"`
	ActualCost    *float64     `json:"actual_cost,omitempty" bson:"actual_cost,omitempty" validate:"omitempty,gte=0"`
	Notes         string       `json:"notes,omitempty" bson:"notes,omitempty" validate:"omitempty,max=2000"`
	Location      string       `json:"location" bson:"location" validate:"required,booking_location"`
	IsPaid        bool         `json:"is_paid" bson:"is_paid"`
	PaymentMethod string       `json:"payment_method,omitempty" bson:"payment_method,omitempty" validate:"omitempty,oneof=cash mpesa card bank_transfer"`
	// SlotKey is the storage-level claim on (date, slot). Empty once the booking is terminal.
	SlotKey   string    `json:"-" bson:"slot_key,omitempty"`
	CreatedAt time.Time `json:"created_at" bson:"created_at"`
	UpdatedAt time.Time `json:"updated_at" bson:"updated_at"`
}

// IsActive reports whether the booking currently holds its slot.
func (b *Booking) IsActive() bool {
	return IsActiveStatus(b.Status)
}

// RefreshSlotKey derives SlotKey from the booking's date, time and status.
func (b *Booking) RefreshSlotKey() {
	if !b.IsActive() || b.PreferredDate.IsZero() || b.PreferredTime == "" {
		b.SlotKey = ""
		return
	}
	b.SlotKey = SlotKey(b.PreferredDate, b.PreferredTime)
}

// SlotKey formats the unique claim string for a date and slot label, e.g. 2024-06-10T09:00.
func SlotKey(date Date, slot string) string {
	return date.String() + "T" + slot
}

type BookingUpdate struct {
	CustomerName  *string      `json:"customer_name,omitempty"`
	CustomerEmail *string      `json:"customer_email,omitempty"`
	CustomerPhone *string      `json:"customer_phone,omitempty"`
	Service       *string      `json:"service,omitempty"`
	VehicleInfo   *VehicleInfo `json:"vehicle_info,omitempty"`
	PreferredDate *Date        `json:"preferred_date,omitempty"`
	PreferredTime *string      `json:"preferred_time,omitempty"`
	Urgency       *string      `json:"urgency,omitempty"`
	Message       *string      `json:"message,omitempty"`
	Status        *string      `json:"status,omitempty"`
	EstimatedCost *float64     `json:"estimated_cost,omitempty"`
	ActualCost    *float64     `json:"actual_cost,omitempty"`
	Notes         *string      `json:"notes,omitempty"`
	Location      *string      `json:"location,omitempty"`
	IsPaid        *bool        `json:"is_paid,omitempty"`
	PaymentMethod *string      `json:"payment_method,omitempty"`
}

type StatusUpdate struct {
	Status string  `json:"status" validate:"required,oneof=pending confirmed in-progress completed cancelled"`
	Notes  *string `json:"notes,omitempty" validate:"omitempty,max=2000"`
}

type Availability struct {
	Date           string   `json:"date"`
	AvailableSlots []string `json:"available_slots"`
	BookedSlots    []string `json:"booked_slots"`
}

// BookingFilter narrows list and export queries. Zero values mean "any".
type BookingFilter struct {
	Status   string
	Service  string
	DateFrom *Date
	DateTo   *Date
}
