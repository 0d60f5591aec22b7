package session

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/xelth-com/saisun/internal/matcher"
	"github.com/xelth-com/saisun/internal/models"
)

// State is a step of the measurement flow.
type State int

const (
	Selecting State = iota
	FieldsResolved
	Reviewing
	Committing
	Done
	Failed
)

func (s State) String() string {
	switch s {
	case Selecting:
		return "selecting"
	case FieldsResolved:
		return "fields_resolved"
	case Reviewing:
		return "reviewing"
	case Committing:
		return "committing"
	case Done:
		return "done"
	case Failed:
		return "failed"
	}
	return fmt.Sprintf("state(%d)", int(s))
}

var (
	// ErrInvalidState is returned when an operation does not fit the current state.
	ErrInvalidState = errors.New("invalid session state")
	// ErrUnknownSelection is returned when a brand, id or size is not pending.
	ErrUnknownSelection = errors.New("selection not pending in catalog")
	// ErrDuplicateRequest is returned when a commit request id was already seen.
	ErrDuplicateRequest = errors.New("duplicate commit request")
)

// Input is what the operator entered for one size.
type Input struct {
	Values map[string]string `json:"values"`
	Remark string            `json:"remark"`
}

// SizeForm is the review form of one selected size.
type SizeForm struct {
	Entry         models.CatalogEntry `json:"entry"`
	Fields        []string            `json:"fields"`
	Defaults      map[string]string   `json:"defaults"`
	DefaultSource *models.Identity    `json:"defaultSource,omitempty"`
	Reference     map[string]string   `json:"reference,omitempty"`
}

// CommitResult reports what a commit wrote.
type CommitResult struct {
	Committed []models.EntryKey          `json:"committed"`
	Skipped   []string                   `json:"skipped"`
	Removed   int                        `json:"removed"`
	Records   []models.MeasurementRecord `json:"records"`
}

// CommitError reports a commit that stopped part way. Records listed in
// Committed were written and stay written.
type CommitError struct {
	Committed []models.EntryKey
	// Unremoved are written keys still pending in the catalog because the
	// removal failed. The next commit of the session removes them.
	Unremoved []models.EntryKey
	Failed    string // size whose append failed, empty when the catalog removal failed
	Op        string
	Err       error
}

func (e *CommitError) Error() string {
	if e.Failed != "" {
		return fmt.Sprintf("commit %s failed at size %q after %d committed: %v", e.Op, e.Failed, len(e.Committed), e.Err)
	}
	return fmt.Sprintf("commit %s failed after %d committed: %v", e.Op, len(e.Committed), e.Err)
}

func (e *CommitError) Unwrap() error { return e.Err }

// Session is one operator's pass through the measurement flow. A Session
// is not safe for concurrent use.
type Session struct {
	rec   *Recorder
	state State

	brand        string
	managementID string
	entries      []models.CatalogEntry
	fields       []string
	forms        []SizeForm
	inputs       map[string]Input
	committed    map[string]bool
	unremoved    []models.EntryKey
}

func (s *Session) State() State { return s.state }

// Fields returns the resolved measurement fields.
func (s *Session) Fields() []string { return append([]string(nil), s.fields...) }

// Entries returns the selected catalog entries.
func (s *Session) Entries() []models.CatalogEntry {
	return append([]models.CatalogEntry(nil), s.entries...)
}

// SelectBrand picks a brand that has pending entries.
func (s *Session) SelectBrand(ctx context.Context, brand string) error {
	if s.state != Selecting {
		return s.invalid("select brand")
	}
	brands, err := s.rec.catalog.Brands(ctx)
	if err != nil {
		return err
	}
	brand = strings.TrimSpace(brand)
	if !contains(brands, brand) {
		return fmt.Errorf("%w: brand %q", ErrUnknownSelection, brand)
	}
	s.brand, s.managementID, s.entries = brand, "", nil
	return nil
}

// SelectManagementID picks a pending management id of the selected brand.
func (s *Session) SelectManagementID(ctx context.Context, managementID string) error {
	if s.state != Selecting || s.brand == "" {
		return s.invalid("select management id")
	}
	ids, err := s.rec.catalog.ManagementIDs(ctx, s.brand)
	if err != nil {
		return err
	}
	managementID = strings.TrimSpace(managementID)
	if !contains(ids, managementID) {
		return fmt.Errorf("%w: management id %q for brand %q", ErrUnknownSelection, managementID, s.brand)
	}
	s.managementID, s.entries = managementID, nil
	return nil
}

// SelectSizes picks pending sizes of the selected id, or all of them when
// none are given, and resolves the template fields. A missing template
// returns the session to Selecting with no size chosen.
func (s *Session) SelectSizes(ctx context.Context, sizes ...string) ([]string, error) {
	if s.state != Selecting || s.managementID == "" {
		return nil, s.invalid("select sizes")
	}
	pendingEntries, err := s.rec.catalog.Entries(ctx, s.managementID)
	if err != nil {
		return nil, err
	}
	var chosen []models.CatalogEntry
	if len(sizes) == 0 {
		chosen = pendingEntries
	} else {
		bySize := make(map[string]models.CatalogEntry, len(pendingEntries))
		for _, e := range pendingEntries {
			bySize[e.Size] = e
		}
		seen := make(map[string]bool, len(sizes))
		for _, size := range sizes {
			size = strings.TrimSpace(size)
			e, ok := bySize[size]
			if !ok {
				return nil, fmt.Errorf("%w: size %q of %q", ErrUnknownSelection, size, s.managementID)
			}
			if !seen[size] {
				seen[size] = true
				chosen = append(chosen, e)
			}
		}
	}
	if len(chosen) == 0 {
		return nil, fmt.Errorf("%w: no pending sizes for %q", ErrUnknownSelection, s.managementID)
	}

	fields, err := s.rec.templates.ResolveFields(ctx, chosen[0].Genre)
	if err != nil {
		return nil, err
	}
	s.entries = chosen
	s.fields = fields
	s.state = FieldsResolved
	return s.Fields(), nil
}

// Review builds the per-size forms with matched defaults and reference
// standards and moves to Reviewing.
func (s *Session) Review(ctx context.Context) ([]SizeForm, error) {
	if s.state != FieldsResolved {
		return nil, s.invalid("review")
	}
	history, err := s.rec.measurements.History(ctx)
	if err != nil {
		return nil, err
	}
	forms := make([]SizeForm, 0, len(s.entries))
	for _, e := range s.entries {
		form := SizeForm{Entry: e, Fields: s.Fields(), Defaults: map[string]string{}}
		c := matcher.Candidate{ManagementID: e.ManagementID, ProductName: e.ProductName, Size: e.Size}
		if match, ok := matcher.FindDefault(c, history, s.rec.match); ok {
			form.Defaults = matcher.Hints(match, s.fields)
			src := match.Identity
			form.DefaultSource = &src
		}
		if s.rec.reference != nil {
			ref, ok, err := s.rec.reference.Lookup(ctx, e.ManagementID, e.Size)
			if err != nil {
				s.rec.log.Warn("reference lookup failed", "managementId", e.ManagementID, "size", e.Size, "error", err)
			} else if ok {
				form.Reference = make(map[string]string, len(ref.Fields))
				for _, fv := range ref.Fields {
					form.Reference[fv.Name] = fv.Value
				}
			}
		}
		forms = append(forms, form)
	}
	s.forms = forms
	s.state = Reviewing
	return forms, nil
}

// Forms returns the forms built by Review.
func (s *Session) Forms() []SizeForm { return s.forms }

// Enter records the operator's values for size. Values of fields outside
// the template are ignored at commit.
func (s *Session) Enter(size string, in Input) error {
	if s.state != Reviewing {
		return s.invalid("enter values")
	}
	size = strings.TrimSpace(size)
	if !s.hasSize(size) {
		return fmt.Errorf("%w: size %q not selected", ErrUnknownSelection, size)
	}
	s.inputs[size] = in
	return nil
}

// Commit writes one record per size with at least one value and removes
// those sizes from the catalog. A non-empty requestID seen within the
// dedup window is rejected. On failure the session moves to Failed; Retry
// returns it to Reviewing and a later commit writes only the sizes that
// were not written and removes every written size still in the catalog.
func (s *Session) Commit(ctx context.Context, requestID string) (CommitResult, error) {
	if s.state != Reviewing {
		return CommitResult{}, s.invalid("commit")
	}
	if s.rec.dedupe.IsDuplicate(requestID) {
		return CommitResult{}, fmt.Errorf("%w: %s", ErrDuplicateRequest, requestID)
	}
	s.state = Committing

	batch := make([]pending, 0, len(s.entries))
	for _, e := range s.entries {
		if s.committed[e.Size] {
			continue
		}
		batch = append(batch, pending{entry: e, input: s.inputs[e.Size]})
	}
	res, err := s.rec.commit(ctx, s.fields, batch, s.unremoved)
	for _, k := range res.Committed {
		s.committed[k.Size] = true
	}
	if err != nil {
		var cerr *CommitError
		if errors.As(err, &cerr) {
			s.unremoved = cerr.Unremoved
		}
		s.rec.dedupe.Forget(requestID)
		s.state = Failed
		return res, err
	}
	s.inputs = make(map[string]Input)
	s.unremoved = nil
	s.state = Done
	return res, nil
}

// Retry returns a failed session to Reviewing, keeping entered values.
func (s *Session) Retry() error {
	if s.state != Failed {
		return s.invalid("retry")
	}
	s.state = Reviewing
	return nil
}

// Reset abandons the session and starts over at Selecting. Nothing is
// written before Commit, so abandoning has no side effects.
func (s *Session) Reset() {
	*s = *s.rec.NewSession()
}

func (s *Session) hasSize(size string) bool {
	for _, e := range s.entries {
		if e.Size == size {
			return true
		}
	}
	return false
}

func (s *Session) invalid(op string) error {
	return fmt.Errorf("%w: cannot %s while %s", ErrInvalidState, op, s.state)
}

func contains(list []string, v string) bool {
	for _, x := range list {
		if x == v {
			return true
		}
	}
	return false
}
