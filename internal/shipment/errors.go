package shipment

import "errors"

var (
	// ErrShipmentNotFound indicates no shipment matched the lookup. Ownership
	// misses surface as this error too so callers cannot probe other users'
	// shipments.
	ErrShipmentNotFound = errors.New("shipment not found")

	// ErrParcelNotFound indicates the referenced parcel does not exist for the
	// caller.
	ErrParcelNotFound = errors.New("parcel not found")

	// ErrAlreadyPaid indicates a booking attempt on a shipment that has
	// already been paid for.
	ErrAlreadyPaid = errors.New("shipment has already been paid for")

	// ErrInvalidTransition indicates a status move the lifecycle does not
	// allow.
	ErrInvalidTransition = errors.New("invalid shipment status transition")

	// ErrRiderAssigned indicates the shipment already has a rider.
	ErrRiderAssigned = errors.New("shipment already has an assigned rider")

	// ErrNotAssignable indicates the shipment is not in a state that accepts a
	// rider.
	ErrNotAssignable = errors.New("shipment is not awaiting rider assignment")

	// ErrMissingCoordinates indicates an address without a usable
	// latitude/longitude pair, so no rate can be computed.
	ErrMissingCoordinates = errors.New("address has no coordinates")
)
