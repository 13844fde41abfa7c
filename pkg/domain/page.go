package domain

// PageType defines how a page is answered and how its answer affects traversal.
type PageType string

const (
	// PageTypeSelection asks the user to pick one Selection. The chosen item may open a sub-flow.
	PageTypeSelection PageType = "SELECTION"
	// PageTypeNumber asks for one or more bounded numeric values.
	PageTypeNumber PageType = "NUMBER"
	// PageTypeText asks for a free text value.
	PageTypeText PageType = "TEXT"
)

// Valid reports whether t is one of the known page types.
func (t PageType) Valid() bool {
	switch t {
	case PageTypeSelection, PageTypeNumber, PageTypeText:
		return true
	}
	return false
}

// Page is an immutable step definition fetched from the page store.
type Page struct {
	ID          string   `json:"id" yaml:"id" mapstructure:"id"`
	Type        PageType `json:"type" yaml:"type" mapstructure:"type"`
	Title       string   `json:"title" yaml:"title" mapstructure:"title"`
	Description string   `json:"description,omitempty" yaml:"description,omitempty" mapstructure:"description"`

	// NextPages are visited after this page regardless of the answer given.
	NextPages []string `json:"next_pages" yaml:"next_pages" mapstructure:"next_pages"`

	// Selections is only set for SELECTION pages.
	Selections []Selection `json:"selections,omitempty" yaml:"selections,omitempty" mapstructure:"selections"`

	// NumberInputs is only set for NUMBER pages.
	NumberInputs []NumberInput `json:"number_inputs,omitempty" yaml:"number_inputs,omitempty" mapstructure:"number_inputs"`
}

// Selection returns the selection with the given id.
func (p *Page) Selection(id string) (Selection, bool) {
	for _, s := range p.Selections {
		if s.ID == id {
			return s, true
		}
	}
	return Selection{}, false
}

// NumberInput returns the number input with the given id.
func (p *Page) NumberInput(id string) (NumberInput, bool) {
	for _, in := range p.NumberInputs {
		if in.ID == id {
			return in, true
		}
	}
	return NumberInput{}, false
}

// Selection is one choosable item of a SELECTION page.
// Its NextPages open a nested branch that is walked before the page's own NextPages.
type Selection struct {
	ID        string   `json:"id" yaml:"id" mapstructure:"id"`
	Title     string   `json:"title" yaml:"title" mapstructure:"title"`
	Desc      string   `json:"desc,omitempty" yaml:"desc,omitempty" mapstructure:"desc"`
	Image     string   `json:"image,omitempty" yaml:"image,omitempty" mapstructure:"image"`
	NextPages []string `json:"next_pages,omitempty" yaml:"next_pages,omitempty" mapstructure:"next_pages"`
}

// NumberInput is one numeric field of a NUMBER page.
// Minimum == Maximum == 0 means "any positive value".
type NumberInput struct {
	ID       string  `json:"id" yaml:"id" mapstructure:"id"`
	Title    string  `json:"title" yaml:"title" mapstructure:"title"`
	Required bool    `json:"required" yaml:"required" mapstructure:"required"`
	Minimum  float64 `json:"minimum" yaml:"minimum" mapstructure:"minimum"`
	Maximum  float64 `json:"maximum" yaml:"maximum" mapstructure:"maximum"`
	Decimals bool    `json:"decimals" yaml:"decimals" mapstructure:"decimals"`
}

// Unbounded reports whether the input uses the "any positive value" convention.
func (n NumberInput) Unbounded() bool {
	return n.Minimum == 0 && n.Maximum == 0
}
