// Package listingtest provides an in-memory listing.Store for tests.
package listingtest

import (
	"context"
	"sort"
	"sync"
	"time"

	"emlak-backend/internal/listing"
	"emlak-backend/internal/models"

	"gorm.io/gorm"
)

type state struct {
	nextID       uint
	nextDetailID uint
	nextImageID  uint
	tick         int64

	props   map[uint]models.Property
	details map[uint]models.PropertyDetail // property id -> detail
	images  map[uint][]models.PropertyImage
}

func newState() *state {
	return &state{
		props:   map[uint]models.Property{},
		details: map[uint]models.PropertyDetail{},
		images:  map[uint][]models.PropertyImage{},
	}
}

func (st *state) clone() *state {
	out := *st
	out.props = make(map[uint]models.Property, len(st.props))
	for k, v := range st.props {
		out.props[k] = v
	}
	out.details = make(map[uint]models.PropertyDetail, len(st.details))
	for k, v := range st.details {
		out.details[k] = v
	}
	out.images = make(map[uint][]models.PropertyImage, len(st.images))
	for k, v := range st.images {
		out.images[k] = append([]models.PropertyImage(nil), v...)
	}
	return &out
}

// now is a deterministic clock so insertion order equals CreatedAt order.
func (st *state) now() time.Time {
	st.tick++
	return time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC).Add(time.Duration(st.tick) * time.Second)
}

// Store is a mutex-guarded in-memory Store. Transactions work on a copy that
// replaces the live state only when fn succeeds.
type Store struct {
	mu sync.Mutex
	st *state

	failMu   sync.Mutex
	failures map[string]error
}

var _ listing.Store = (*Store)(nil)

func New() *Store {
	return &Store{st: newState(), failures: map[string]error{}}
}

// FailOn makes every call of the named method return err until cleared with a nil err.
func (s *Store) FailOn(method string, err error) {
	s.failMu.Lock()
	defer s.failMu.Unlock()
	if err == nil {
		delete(s.failures, method)
		return
	}
	s.failures[method] = err
}

func (s *Store) fail(method string) error {
	s.failMu.Lock()
	defer s.failMu.Unlock()
	return s.failures[method]
}

// Seed inserts records directly, keeping given ids, statuses and timestamps.
func (s *Store) Seed(props ...models.Property) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, p := range props {
		if p.ID == 0 {
			s.st.nextID++
			p.ID = s.st.nextID
		} else if p.ID > s.st.nextID {
			s.st.nextID = p.ID
		}
		if p.CreatedAt.IsZero() {
			p.CreatedAt = s.st.now()
			p.UpdatedAt = p.CreatedAt
		}
		if p.Detail != nil {
			d := *p.Detail
			d.PropertyID = p.ID
			s.st.nextDetailID++
			d.ID = s.st.nextDetailID
			s.st.details[p.ID] = d
		}
		if len(p.Images) > 0 {
			imgs := make([]models.PropertyImage, len(p.Images))
			for i, img := range p.Images {
				s.st.nextImageID++
				img.ID = s.st.nextImageID
				img.PropertyID = p.ID
				imgs[i] = img
			}
			s.st.images[p.ID] = imgs
		}
		p.Detail, p.Images = nil, nil
		s.st.props[p.ID] = p
	}
}

// Count returns the number of property, detail and image rows, deleted ones included.
func (s *Store) Count() (props, details, images int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, imgs := range s.st.images {
		images += len(imgs)
	}
	return len(s.st.props), len(s.st.details), images
}

// Raw returns the stored row including soft-deleted ones.
func (s *Store) Raw(id uint) (models.Property, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.st.props[id]
	return p, ok
}

func (s *Store) InTransaction(ctx context.Context, fn func(tx listing.Store) error) error {
	if err := s.fail("InTransaction"); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	work := s.st.clone()
	if err := fn(&txStore{parent: s, st: work}); err != nil {
		return err
	}
	s.st = work
	return nil
}

func (s *Store) FindProperties(ctx context.Context, pred listing.Predicate) ([]models.Property, error) {
	if err := s.fail("FindProperties"); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.st.find(pred), nil
}

func (s *Store) FindPropertyByID(ctx context.Context, id uint) (*models.Property, error) {
	if err := s.fail("FindPropertyByID"); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.st.byID(id)
}

func (s *Store) InsertProperty(ctx context.Context, p *models.Property) error {
	return s.InTransaction(ctx, func(tx listing.Store) error { return tx.InsertProperty(ctx, p) })
}

func (s *Store) InsertDetail(ctx context.Context, d *models.PropertyDetail) error {
	return s.InTransaction(ctx, func(tx listing.Store) error { return tx.InsertDetail(ctx, d) })
}

func (s *Store) InsertImages(ctx context.Context, propertyID uint, imgs []models.PropertyImage) error {
	return s.InTransaction(ctx, func(tx listing.Store) error { return tx.InsertImages(ctx, propertyID, imgs) })
}

func (s *Store) UpdateProperty(ctx context.Context, p *models.Property) error {
	return s.InTransaction(ctx, func(tx listing.Store) error { return tx.UpdateProperty(ctx, p) })
}

func (s *Store) SaveDetail(ctx context.Context, d *models.PropertyDetail) error {
	return s.InTransaction(ctx, func(tx listing.Store) error { return tx.SaveDetail(ctx, d) })
}

func (s *Store) ReplaceImages(ctx context.Context, propertyID uint, imgs []models.PropertyImage) error {
	return s.InTransaction(ctx, func(tx listing.Store) error { return tx.ReplaceImages(ctx, propertyID, imgs) })
}

func (s *Store) SoftDeleteProperty(ctx context.Context, id uint) error {
	return s.InTransaction(ctx, func(tx listing.Store) error { return tx.SoftDeleteProperty(ctx, id) })
}

func (s *Store) IncrementViewCount(ctx context.Context, id uint) error {
	return s.InTransaction(ctx, func(tx listing.Store) error { return tx.IncrementViewCount(ctx, id) })
}

// txStore operates on the working copy; the parent lock is already held.
type txStore struct {
	parent *Store
	st     *state
}

func (t *txStore) InTransaction(ctx context.Context, fn func(tx listing.Store) error) error {
	return fn(t)
}

func (t *txStore) FindProperties(ctx context.Context, pred listing.Predicate) ([]models.Property, error) {
	if err := t.parent.fail("FindProperties"); err != nil {
		return nil, err
	}
	return t.st.find(pred), nil
}

func (t *txStore) FindPropertyByID(ctx context.Context, id uint) (*models.Property, error) {
	if err := t.parent.fail("FindPropertyByID"); err != nil {
		return nil, err
	}
	return t.st.byID(id)
}

func (t *txStore) InsertProperty(ctx context.Context, p *models.Property) error {
	if err := t.parent.fail("InsertProperty"); err != nil {
		return err
	}
	t.st.nextID++
	p.ID = t.st.nextID
	p.CreatedAt = t.st.now()
	p.UpdatedAt = p.CreatedAt
	row := *p
	row.Detail, row.Images = nil, nil
	t.st.props[p.ID] = row
	return nil
}

func (t *txStore) InsertDetail(ctx context.Context, d *models.PropertyDetail) error {
	if err := t.parent.fail("InsertDetail"); err != nil {
		return err
	}
	if _, ok := t.st.props[d.PropertyID]; !ok {
		return listing.ErrNotFound
	}
	t.st.nextDetailID++
	d.ID = t.st.nextDetailID
	d.CreatedAt = t.st.now()
	d.UpdatedAt = d.CreatedAt
	t.st.details[d.PropertyID] = *d
	return nil
}

func (t *txStore) InsertImages(ctx context.Context, propertyID uint, imgs []models.PropertyImage) error {
	if err := t.parent.fail("InsertImages"); err != nil {
		return err
	}
	if _, ok := t.st.props[propertyID]; !ok {
		return listing.ErrNotFound
	}
	for _, img := range imgs {
		t.st.nextImageID++
		img.ID = t.st.nextImageID
		img.PropertyID = propertyID
		img.CreatedAt = t.st.now()
		t.st.images[propertyID] = append(t.st.images[propertyID], img)
	}
	return nil
}

func (t *txStore) UpdateProperty(ctx context.Context, p *models.Property) error {
	if err := t.parent.fail("UpdateProperty"); err != nil {
		return err
	}
	cur, ok := t.st.props[p.ID]
	if !ok || cur.DeletedAt.Valid {
		return listing.ErrNotFound
	}
	row := *p
	row.Detail, row.Images = nil, nil
	row.CreatedBy = cur.CreatedBy
	row.CreatedAt = cur.CreatedAt
	row.UpdatedAt = t.st.now()
	t.st.props[p.ID] = row
	return nil
}

func (t *txStore) SaveDetail(ctx context.Context, d *models.PropertyDetail) error {
	if err := t.parent.fail("SaveDetail"); err != nil {
		return err
	}
	if _, ok := t.st.props[d.PropertyID]; !ok {
		return listing.ErrNotFound
	}
	if cur, ok := t.st.details[d.PropertyID]; ok {
		d.ID = cur.ID
		d.CreatedAt = cur.CreatedAt
	} else {
		t.st.nextDetailID++
		d.ID = t.st.nextDetailID
		d.CreatedAt = t.st.now()
	}
	d.UpdatedAt = t.st.now()
	t.st.details[d.PropertyID] = *d
	return nil
}

func (t *txStore) ReplaceImages(ctx context.Context, propertyID uint, imgs []models.PropertyImage) error {
	if err := t.parent.fail("ReplaceImages"); err != nil {
		return err
	}
	delete(t.st.images, propertyID)
	return t.InsertImages(ctx, propertyID, imgs)
}

func (t *txStore) SoftDeleteProperty(ctx context.Context, id uint) error {
	if err := t.parent.fail("SoftDeleteProperty"); err != nil {
		return err
	}
	p, ok := t.st.props[id]
	if !ok || p.DeletedAt.Valid {
		return listing.ErrNotFound
	}
	p.DeletedAt = gorm.DeletedAt{Time: t.st.now(), Valid: true}
	t.st.props[id] = p
	return nil
}

func (t *txStore) IncrementViewCount(ctx context.Context, id uint) error {
	if err := t.parent.fail("IncrementViewCount"); err != nil {
		return err
	}
	p, ok := t.st.props[id]
	if !ok || p.DeletedAt.Valid {
		return listing.ErrNotFound
	}
	p.ViewCount++
	t.st.props[id] = p
	return nil
}

func (st *state) hydrate(p models.Property) models.Property {
	if d, ok := st.details[p.ID]; ok {
		d := d
		p.Detail = &d
	}
	if imgs := st.images[p.ID]; len(imgs) > 0 {
		p.Images = append([]models.PropertyImage(nil), imgs...)
		sort.SliceStable(p.Images, func(i, j int) bool { return p.Images[i].SortOrder < p.Images[j].SortOrder })
	}
	return p
}

func (st *state) byID(id uint) (*models.Property, error) {
	p, ok := st.props[id]
	if !ok || p.DeletedAt.Valid {
		return nil, listing.ErrNotFound
	}
	out := st.hydrate(p)
	return &out, nil
}

// find mirrors the SQL ordering: featured first, newest first.
func (st *state) find(pred listing.Predicate) []models.Property {
	out := []models.Property{}
	for _, p := range st.props {
		if p.DeletedAt.Valid {
			continue
		}
		full := st.hydrate(p)
		if pred.Matches(&full) {
			out = append(out, full)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].IsFeatured != out[j].IsFeatured {
			return out[i].IsFeatured
		}
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID > out[j].ID
	})
	return out
}
