package event

// Event type identifiers carried in the envelope. The literal values
// are part of the wire contract with upstream producers and downstream
// consumers.
const (
	TypeProduct              = "product"
	TypeCartProduct          = "cart-product"
	TypeCartStatus           = "cart-status"
	TypeCartCleared          = "cart-cleared" // reserved, not currently emitted
	TypeFunctionSubscription = "function-subscription"
)

// Availability of a product as reported by the upstream catalog.
type Availability string

const (
	InStock      Availability = "IN_STOCK"
	OutOfStock   Availability = "OUT_OF_STOCK"
	Discontinued Availability = "DISCONTINUED"
)

// SubscriptionAction says what a function-subscription message wants
// from the publisher.
type SubscriptionAction string

const (
	// Subscribe registers the subscriber and requests an initial sync.
	Subscribe SubscriptionAction = "SUBSCRIBE"
	// Unsubscribe removes the subscriber. No reply is sent.
	Unsubscribe SubscriptionAction = "UNSUBSCRIBE"
	// Query requests the current state without registering.
	Query SubscriptionAction = "QUERY"
)

// Event is the closed set of business events exchanged between actors
// and the outside world. Every switch over this union must handle all
// variants; adding a variant is a compile-time visible change.
type Event interface {
	EventType() string
	isEvent()
}

// Product is the authoritative update of one product's attributes. It
// is also the message a product actor fans out to its subscribers.
type Product struct {
	ID           string       `json:"id"`
	Title        string       `json:"title"`
	Description  string       `json:"description"`
	Price        float64      `json:"price"`
	Availability Availability `json:"availability"`
}

// CartProduct is a quantity delta for one product in one cart. The
// origin price is the price the customer was seeing at add-to-cart time.
// Quantity may be negative.
type CartProduct struct {
	CartID      string  `json:"cartId"`
	ProductID   string  `json:"productId"`
	OriginPrice float64 `json:"originPrice"`
	Quantity    int     `json:"quantity"`
}

// CartItemStatus is one line of a consolidated cart-status event.
type CartItemStatus struct {
	ProductID    string       `json:"productId"`
	Quantity     int          `json:"quantity"`
	OriginPrice  float64      `json:"originPrice"`
	CurrentPrice float64      `json:"currentPrice"`
	Availability Availability `json:"availability"`
	Version      string       `json:"version"`
}

// CartStatus is the consolidated view of a cart, emitted to egress
// whenever a subscribed product update lands in the cart actor.
type CartStatus struct {
	CartID string           `json:"cartId"`
	Items  []CartItemStatus `json:"cartItemStatuses"`
}

// CartCleared is reserved in the catalog; nothing emits it today.
type CartCleared struct {
	CartID string `json:"cartId"`
}

// FunctionSubscription establishes or tears down a standing interest in
// a publisher's updates. It is addressed to the publisher and carries
// the subscriber's own address so the publisher knows where to send
// updates and the immediate sync reply. The correlation id is opaque
// and passed through unchanged.
type FunctionSubscription struct {
	Action        SubscriptionAction `json:"action"`
	Publisher     Address            `json:"publisher"`
	Subscriber    Address            `json:"subscriber"`
	CorrelationID string             `json:"correlationId,omitempty"`
}

func (*Product) EventType() string              { return TypeProduct }
func (*CartProduct) EventType() string          { return TypeCartProduct }
func (*CartStatus) EventType() string           { return TypeCartStatus }
func (*CartCleared) EventType() string          { return TypeCartCleared }
func (*FunctionSubscription) EventType() string { return TypeFunctionSubscription }

func (*Product) isEvent()              {}
func (*CartProduct) isEvent()          {}
func (*CartStatus) isEvent()           {}
func (*CartCleared) isEvent()          {}
func (*FunctionSubscription) isEvent() {}
