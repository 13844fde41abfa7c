package domain

import (
	"slices"
	"time"
)

// FlowStatus defines the lifecycle position of a configuration session.
type FlowStatus string

const (
	StatusIdle      FlowStatus = "idle"            // No flow started, or cancelled
	StatusAwaiting  FlowStatus = "awaiting_answer" // A page is displayed and waits for an answer
	StatusCompleted FlowStatus = "completed"       // All branches exhausted, Result is set
)

// NumberValue is one answered number input.
type NumberValue struct {
	Title string  `json:"title"`
	Value float64 `json:"value"`
}

// TextValue is the answer of a TEXT page.
type TextValue struct {
	TextValue string `json:"textValue"`
}

// UserInput is the answer recorded for a page. Exactly one field is set,
// matching the type of the page it answers.
type UserInput struct {
	Selection *Selection             `json:"selection,omitempty"`
	Numbers   map[string]NumberValue `json:"numbers,omitempty"`
	Text      *TextValue             `json:"text,omitempty"`
}

// Step is one completed page.
type Step struct {
	PageID    string    `json:"pageId"`
	PageTitle string    `json:"pageTitle"`
	PageType  PageType  `json:"pageType"`
	UserInput UserInput `json:"userInput"`

	// Seq is the submission order within the flow. Final step lists are ordered by it.
	Seq         int       `json:"seq"`
	SubmittedAt time.Time `json:"submittedAt"`
}

// Branch is a linear run of pages being traversed.
//
// While moving forward len(CompletedSteps) == CurrentIndex. Appended is parallel to
// CompletedSteps and records how many page ids each step added to Pages, so that
// stepping back can remove them again.
type Branch struct {
	Pages          []string `json:"pages"`
	CurrentIndex   int      `json:"currentIndex"`
	CompletedSteps []Step   `json:"completedSteps"`
	Appended       []int    `json:"appended"`
}

// NewBranch creates a branch positioned on the first of the given pages.
func NewBranch(pages []string) Branch {
	return Branch{
		Pages:          append([]string(nil), pages...),
		CompletedSteps: []Step{},
		Appended:       []int{},
	}
}

// CurrentPageID returns the page id under the cursor.
func (b *Branch) CurrentPageID() string {
	if b.CurrentIndex < 0 || b.CurrentIndex >= len(b.Pages) {
		return ""
	}
	return b.Pages[b.CurrentIndex]
}

// Exhausted reports whether the cursor is on the last page of the branch.
func (b *Branch) Exhausted() bool {
	return b.CurrentIndex >= len(b.Pages)-1
}

func (b Branch) clone() Branch {
	return Branch{
		Pages:          slices.Clone(b.Pages),
		CurrentIndex:   b.CurrentIndex,
		CompletedSteps: slices.Clone(b.CompletedSteps),
		Appended:       slices.Clone(b.Appended),
	}
}

// Flow is the snapshot of one configuration session.
// The top of Stack is the branch currently displayed.
type Flow struct {
	SessionID string     `json:"sessionId"`
	CartID    string     `json:"cartId,omitempty"`
	Product   Product    `json:"product"`
	Status    FlowStatus `json:"status"`

	Stack []Branch `json:"stack"`

	// Finished holds the steps of branches already popped off the stack.
	Finished []Step `json:"finished"`

	CurrentPage *Page `json:"currentPage,omitempty"`
	NextSeq     int   `json:"nextSeq"`

	// Result is set once Status == StatusCompleted.
	Result *ConfiguredProduct `json:"result,omitempty"`
}

// Top returns the branch on top of the stack, or nil if the stack is empty.
func (f *Flow) Top() *Branch {
	if len(f.Stack) == 0 {
		return nil
	}
	return &f.Stack[len(f.Stack)-1]
}

// Active reports whether the flow is waiting for an answer.
func (f *Flow) Active() bool {
	return f.Status == StatusAwaiting && len(f.Stack) > 0
}

// CompletedCount is the number of steps answered so far, across popped and stacked branches.
func (f *Flow) CompletedCount() int {
	n := len(f.Finished)
	for _, b := range f.Stack {
		n += len(b.CompletedSteps)
	}
	return n
}

// Clone returns a deep copy of the flow so transitions can mutate it freely.
// Pages are immutable and shared.
func (f *Flow) Clone() *Flow {
	if f == nil {
		return nil
	}
	next := *f
	if f.Stack != nil {
		next.Stack = make([]Branch, len(f.Stack))
		for i, b := range f.Stack {
			next.Stack[i] = b.clone()
		}
	}
	next.Finished = slices.Clone(f.Finished)
	if f.Result != nil {
		r := *f.Result
		r.UserSelections = slices.Clone(f.Result.UserSelections)
		next.Result = &r
	}
	return &next
}
