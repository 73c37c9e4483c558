package masterdata

// Client is a tenant of the warehouse operation.
type Client struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Active bool   `json:"active"`
}

// Provider is a transport carrier serving inbound flows.
type Provider struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Active bool   `json:"active"`
}
