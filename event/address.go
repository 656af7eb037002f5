package event

// Fixed address components for the two actor kinds hosted by this
// service. The namespace is shared; the type selects the actor kind and
// the id is the business key (cart id or product id).
const (
	Namespace = "example"

	KindCart    = "cart"
	KindProduct = "product"
)

// Address identifies one actor instance by namespace, type and id.
type Address struct {
	Namespace string `json:"namespace"`
	Type      string `json:"type"`
	ID        string `json:"id"`
}

// CartAddress returns the address of the cart actor for a cart id.
func CartAddress(cartID string) Address {
	return Address{Namespace: Namespace, Type: KindCart, ID: cartID}
}

// ProductAddress returns the address of the product actor for a product id.
func ProductAddress(productID string) Address {
	return Address{Namespace: Namespace, Type: KindProduct, ID: productID}
}

// Key returns the canonical "namespace:type:id" form. It doubles as the
// subscriber registry key on the publisher side.
func (a Address) Key() string {
	return a.Namespace + ":" + a.Type + ":" + a.ID
}

func (a Address) String() string {
	return a.Key()
}

// Valid reports whether every address component is set.
func (a Address) Valid() bool {
	return a.Namespace != "" && a.Type != "" && a.ID != ""
}
