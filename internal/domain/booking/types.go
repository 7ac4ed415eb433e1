package booking

type Status string

const (
	StatusPendingPayment Status = "pending_payment"
	StatusCreated        Status = "created"
	StatusPicked         Status = "picked"
	StatusShipped        Status = "shipped"
	StatusDelivered      Status = "delivered"
	StatusReturned       Status = "returned"
	StatusCancelled      Status = "cancelled"
)

// forward edges of the lifecycle; Cancelled is reachable from every non-terminal state
var forward = map[Status][]Status{
	StatusPendingPayment: {StatusCreated},
	StatusCreated:        {StatusPicked},
	StatusPicked:         {StatusShipped},
	StatusShipped:        {StatusDelivered, StatusReturned},
}

func (s Status) String() string {
	return string(s)
}

func (s Status) IsValid() bool {
	switch s {
	case StatusPendingPayment, StatusCreated, StatusPicked, StatusShipped,
		StatusDelivered, StatusReturned, StatusCancelled:
		return true
	default:
		return false
	}
}

func (s Status) IsTerminal() bool {
	return s == StatusDelivered || s == StatusReturned || s == StatusCancelled
}

func (s Status) CanAdvanceTo(next Status) bool {
	if next == StatusCancelled {
		return !s.IsTerminal()
	}
	for _, candidate := range forward[s] {
		if candidate == next {
			return true
		}
	}
	return false
}

type PaymentStatus string

const (
	PaymentPending  PaymentStatus = "pending"
	PaymentPaid     PaymentStatus = "paid"
	PaymentFailed   PaymentStatus = "failed"
	PaymentRefunded PaymentStatus = "refunded"
)

func (p PaymentStatus) String() string {
	return string(p)
}

func (p PaymentStatus) IsValid() bool {
	switch p {
	case PaymentPending, PaymentPaid, PaymentFailed, PaymentRefunded:
		return true
	default:
		return false
	}
}

type PaymentMethod string

const (
	MethodCOD    PaymentMethod = "cod"
	MethodOnline PaymentMethod = "online"
)

func (m PaymentMethod) String() string {
	return string(m)
}

func (m PaymentMethod) IsValid() bool {
	return m == MethodCOD || m == MethodOnline
}
