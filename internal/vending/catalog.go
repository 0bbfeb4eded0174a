package vending

// Catalog is the history of product descriptions a machine has ever registered,
// in first-seen order without duplicates.
type Catalog struct {
	descriptions []string
	seen         map[string]struct{}
}

func NewCatalog() *Catalog {
	return &Catalog{seen: make(map[string]struct{})}
}

// Record adds description to the history unless it is already there.
func (c *Catalog) Record(description string) {
	if _, ok := c.seen[description]; ok {
		return
	}
	c.seen[description] = struct{}{}
	c.descriptions = append(c.descriptions, description)
}

// Descriptions returns a copy of the history.
func (c *Catalog) Descriptions() []string {
	out := make([]string, len(c.descriptions))
	copy(out, c.descriptions)
	return out
}

func (c *Catalog) Len() int {
	return len(c.descriptions)
}
