package staging

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"unicode/utf8"

	"github.com/google/uuid"
)

// MaxCaptionLength is the caption limit in characters.
const MaxCaptionLength = 200

var (
	ErrQueueFull  = errors.New("staging queue full")
	ErrNoSuchItem = errors.New("no staged file at index")
)

// StagedFile is a snapshot of one staged item. Order is its position in the
// queue at the time the snapshot was taken. A StagedFile never carries a
// storage path; that is assigned on promotion.
type StagedFile struct {
	ID           string
	Name         string
	ContentType  string
	Size         int64
	Caption      string
	Order        int
	PreviewToken string

	source *SpooledFile
}

// Open returns a reader over the staged content. It fails once the item has
// been removed from its queue.
func (f StagedFile) Open() (io.ReadCloser, error) {
	if f.source == nil {
		return nil, fmt.Errorf("%s: no content", f.Name)
	}
	return f.source.Open()
}

// Queue is the ordered set of staged files of one draft. It owns the spool
// file and preview token of every item and releases both when the item
// leaves the queue.
type Queue struct {
	mu       sync.Mutex
	policy   Policy
	spool    *Spool
	previews *Previews
	items    []*StagedFile
}

func NewQueue(policy Policy, spool *Spool, previews *Previews) *Queue {
	return &Queue{policy: policy, spool: spool, previews: previews}
}

func (q *Queue) Policy() Policy {
	return q.policy
}

// Stage validates candidates against the current length and adds the
// accepted ones in a single step.
func (q *Queue) Stage(candidates []RawFile) (Result, error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	res := Validate(candidates, len(q.items), q.policy)
	if err := q.add(res.Accepted); err != nil {
		return Result{}, err
	}
	return res, nil
}

// Add appends already validated files in batch order. A batch that would
// overflow the queue is refused as a whole. If any file of the batch cannot
// be spooled, the files spooled so far are released and nothing is added.
func (q *Queue) Add(accepted []RawFile) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.add(accepted)
}

func (q *Queue) add(accepted []RawFile) error {
	if len(q.items)+len(accepted) > q.policy.MaxCount {
		return fmt.Errorf("%w: %d staged, %d more, max %d", ErrQueueFull, len(q.items), len(accepted), q.policy.MaxCount)
	}

	batch := make([]*StagedFile, 0, len(accepted))
	for _, f := range accepted {
		sf, err := q.spool.Write(f)
		if err != nil {
			for _, item := range batch {
				_ = q.release(item)
			}
			return err
		}
		batch = append(batch, &StagedFile{
			ID:           uuid.NewString(),
			Name:         f.Name,
			ContentType:  f.ContentType,
			Size:         sf.Size(),
			PreviewToken: q.previews.Issue(sf),
			source:       sf,
		})
	}

	q.items = append(q.items, batch...)
	return nil
}

// Remove releases the item at index and drops it. The item is dropped even
// when its spool file cannot be deleted; that error is returned.
func (q *Queue) Remove(index int) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if err := q.checkIndex(index); err != nil {
		return err
	}

	item := q.items[index]
	q.items = append(q.items[:index], q.items[index+1:]...)
	return q.release(item)
}

// UpdateCaption trims text and truncates it to MaxCaptionLength characters.
func (q *Queue) UpdateCaption(index int, text string) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if err := q.checkIndex(index); err != nil {
		return err
	}
	q.items[index].Caption = TruncateCaption(text)
	return nil
}

// Move takes the item at from out of the sequence and reinserts it at to.
func (q *Queue) Move(from, to int) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if err := q.checkIndex(from); err != nil {
		return err
	}
	if err := q.checkIndex(to); err != nil {
		return err
	}
	if from == to {
		return nil
	}

	item := q.items[from]
	rest := append(q.items[:from:from], q.items[from+1:]...)
	q.items = append(rest[:to:to], append([]*StagedFile{item}, rest[to:]...)...)
	return nil
}

// Clear releases every item and empties the queue.
func (q *Queue) Clear() error {
	q.mu.Lock()
	defer q.mu.Unlock()

	var errs []error
	for _, item := range q.items {
		errs = append(errs, q.release(item))
	}
	q.items = nil
	return errors.Join(errs...)
}

// Items returns a snapshot in queue order.
func (q *Queue) Items() []StagedFile {
	q.mu.Lock()
	defer q.mu.Unlock()

	out := make([]StagedFile, len(q.items))
	for i, item := range q.items {
		out[i] = *item
		out[i].Order = i
	}
	return out
}

func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}

func (q *Queue) checkIndex(index int) error {
	if index < 0 || index >= len(q.items) {
		return fmt.Errorf("%w %d", ErrNoSuchItem, index)
	}
	return nil
}

func (q *Queue) release(item *StagedFile) error {
	q.previews.Revoke(item.PreviewToken)
	if err := item.source.Remove(); err != nil {
		return fmt.Errorf("release %s: %w", item.Name, err)
	}
	return nil
}

// TruncateCaption trims surrounding space and cuts s to MaxCaptionLength
// characters.
func TruncateCaption(s string) string {
	s = strings.TrimSpace(s)
	if utf8.RuneCountInString(s) <= MaxCaptionLength {
		return s
	}
	runes := []rune(s)
	return strings.TrimSpace(string(runes[:MaxCaptionLength]))
}
