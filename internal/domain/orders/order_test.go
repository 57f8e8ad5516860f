package orders

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"melodia/internal/core/apperror"
	"melodia/internal/core/id"
)

type nopTxManager struct{}

func (nopTxManager) RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

// memOrderRepo is a map-backed order store.
type memOrderRepo struct {
	orders map[id.ID]*Order
}

func newMemOrderRepo() *memOrderRepo {
	return &memOrderRepo{orders: make(map[id.ID]*Order)}
}

func (r *memOrderRepo) Create(ctx context.Context, o *Order) error {
	r.orders[o.ID] = o
	return nil
}

func (r *memOrderRepo) GetByID(ctx context.Context, orderID id.ID) (*Order, error) {
	o, ok := r.orders[orderID]
	if !ok {
		return nil, apperror.NewNotFound("order", orderID.String())
	}
	return o, nil
}

func (r *memOrderRepo) MarkDone(ctx context.Context, orderID id.ID) (bool, error) {
	o, ok := r.orders[orderID]
	if !ok {
		return false, apperror.NewNotFound("order", orderID.String())
	}
	if o.Status != StatusInit {
		return false, nil
	}
	o.Status = StatusDone
	return true, nil
}

func (r *memOrderRepo) ListByMonth(ctx context.Context, t time.Time) ([]Order, error) {
	start := time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 1, 0)

	var out []Order
	for _, o := range r.orders {
		if !o.CreatedAt.Before(start) && o.CreatedAt.Before(end) {
			out = append(out, *o)
		}
	}
	return out, nil
}

func (r *memOrderRepo) ListByUser(ctx context.Context, userID id.ID) ([]Order, error) {
	var out []Order
	for _, o := range r.orders {
		if o.UserID == userID {
			out = append(out, *o)
		}
	}
	return out, nil
}

func TestCreate_RejectsNonPositiveAmount(t *testing.T) {
	ctx := context.Background()
	svc := NewService(newMemOrderRepo(), nopTxManager{})

	_, err := svc.Create(ctx, id.New(), decimal.Zero, "")
	if !apperror.HasCode(err, apperror.CodeValidation) {
		t.Errorf("err = %v, want CodeValidation", err)
	}
}

func TestComplete_OnlyOnce(t *testing.T) {
	ctx := context.Background()
	repo := newMemOrderRepo()
	svc := NewService(repo, nopTxManager{})

	order, err := svc.Create(ctx, id.New(), decimal.NewFromInt(10), "premium")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	if err := svc.Complete(ctx, order.ID); err != nil {
		t.Fatalf("first Complete: %v", err)
	}

	err = svc.Complete(ctx, order.ID)
	if !apperror.HasCode(err, apperror.CodeConflict) {
		t.Errorf("second Complete err = %v, want CodeConflict", err)
	}
}

func TestComplete_UnknownOrderIsNotFound(t *testing.T) {
	ctx := context.Background()
	svc := NewService(newMemOrderRepo(), nopTxManager{})

	err := svc.Complete(ctx, id.New())
	if !apperror.IsNotFound(err) {
		t.Errorf("err = %v, want not found", err)
	}
}

func TestListMonth_SumsOnlyCompleted(t *testing.T) {
	ctx := context.Background()
	repo := newMemOrderRepo()
	svc := NewService(repo, nopTxManager{})

	done, _ := svc.Create(ctx, id.New(), decimal.NewFromInt(25), "")
	if err := svc.Complete(ctx, done.ID); err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if _, err := svc.Create(ctx, id.New(), decimal.NewFromInt(40), ""); err != nil {
		t.Fatalf("Create: %v", err)
	}

	orders, total, err := svc.ListMonth(ctx, time.Now().UTC())
	if err != nil {
		t.Fatalf("ListMonth: %v", err)
	}
	if len(orders) != 2 {
		t.Errorf("orders = %d, want 2", len(orders))
	}
	if !total.Equal(decimal.NewFromInt(25)) {
		t.Errorf("total = %s, want 25", total)
	}
}
