// Package memory provides in-memory repository implementations backed by a
// single mutex-guarded store. They enforce the same invariants as the
// database-backed repositories and exist for tests and local development.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/pharmadesk/pharmacy-api/internal/domain/entity"
	"github.com/pharmadesk/pharmacy-api/internal/domain/enum"
	"github.com/pharmadesk/pharmacy-api/internal/domain/repository"
	"github.com/pharmadesk/pharmacy-api/pkg/pagination"
)

// Store holds all in-memory tables behind one mutex.
type Store struct {
	mu        sync.Mutex
	medicines map[uuid.UUID]*entity.Medicine
	invoices  map[uuid.UUID]*entity.Invoice
	sales     map[uuid.UUID]*entity.Sale
	returns   map[uuid.UUID]*entity.MedicineReturn
	refunds   map[uuid.UUID]*entity.Refund
	customers map[uuid.UUID]*entity.Customer
	users     map[uuid.UUID]*entity.User
	idemKeys  map[string]*entity.IdempotencyKey
	seq       int64
}

// NewStore creates an empty in-memory store.
func NewStore() *Store {
	return &Store{
		medicines: make(map[uuid.UUID]*entity.Medicine),
		invoices:  make(map[uuid.UUID]*entity.Invoice),
		sales:     make(map[uuid.UUID]*entity.Sale),
		returns:   make(map[uuid.UUID]*entity.MedicineReturn),
		refunds:   make(map[uuid.UUID]*entity.Refund),
		customers: make(map[uuid.UUID]*entity.Customer),
		users:     make(map[uuid.UUID]*entity.User),
		idemKeys:  make(map[string]*entity.IdempotencyKey),
	}
}

// next returns a strictly increasing timestamp so created-at ordering is
// stable even when many records are created within the same nanosecond.
func (s *Store) next() time.Time {
	s.seq++
	return time.Now().Add(time.Duration(s.seq) * time.Microsecond)
}

func (s *Store) Medicines() repository.MedicineRepository {
	return &medicineRepo{s: s}
}

func (s *Store) Invoices() repository.InvoiceRepository {
	return &invoiceRepo{s: s}
}

func (s *Store) Returns() repository.ReturnRepository {
	return &returnRepo{s: s}
}

func (s *Store) Customers() repository.CustomerRepository {
	return &customerRepo{s: s}
}

func (s *Store) Users() repository.UserRepository {
	return &userRepo{s: s}
}

func (s *Store) IdempotencyKeys() repository.IdempotencyRepository {
	return &idempotencyRepo{s: s}
}

// medicineRepo

type medicineRepo struct {
	s *Store
}

func (r *medicineRepo) Create(ctx context.Context, medicine *entity.Medicine) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if medicine.ID == uuid.Nil {
		medicine.ID = uuid.New()
	}
	if medicine.CreatedAt.IsZero() {
		medicine.CreatedAt = r.s.next()
	}
	copied := *medicine
	r.s.medicines[medicine.ID] = &copied
	return nil
}

func (r *medicineRepo) GetByID(ctx context.Context, id uuid.UUID) (*entity.Medicine, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	m, ok := r.s.medicines[id]
	if !ok {
		return nil, nil
	}
	copied := *m
	return &copied, nil
}

func (r *medicineRepo) GetByIDs(ctx context.Context, ids []uuid.UUID) ([]entity.Medicine, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []entity.Medicine
	for _, id := range ids {
		if m, ok := r.s.medicines[id]; ok {
			out = append(out, *m)
		}
	}
	return out, nil
}

func (r *medicineRepo) Search(ctx context.Context, query string, limit int) ([]entity.Medicine, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	q := strings.ToLower(query)
	var out []entity.Medicine
	for _, m := range r.s.medicines {
		if m.Quantity <= 0 {
			continue
		}
		if strings.Contains(strings.ToLower(m.Name), q) ||
			strings.Contains(strings.ToLower(m.GenericName), q) ||
			strings.Contains(strings.ToLower(m.Brand), q) {
			out = append(out, *m)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *medicineRepo) AtomicDecrementBatch(ctx context.Context, decrements map[uuid.UUID]int) ([]uuid.UUID, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var failed []uuid.UUID
	for id, qty := range decrements {
		m, ok := r.s.medicines[id]
		if !ok || m.Quantity < qty {
			failed = append(failed, id)
		}
	}
	if len(failed) > 0 {
		return failed, nil
	}
	for id, qty := range decrements {
		r.s.medicines[id].Quantity -= qty
	}
	return nil, nil
}

func (r *medicineRepo) AtomicIncrementBatch(ctx context.Context, increments map[uuid.UUID]int) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for id, qty := range increments {
		if m, ok := r.s.medicines[id]; ok {
			m.Quantity += qty
		}
	}
	return nil
}

// invoiceRepo

type invoiceRepo struct {
	s *Store
}

func (r *invoiceRepo) Create(ctx context.Context, invoice *entity.Invoice) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if invoice.ID == uuid.Nil {
		invoice.ID = uuid.New()
	}
	if invoice.CreatedAt.IsZero() {
		invoice.CreatedAt = r.s.next()
	}
	for i := range invoice.Items {
		item := &invoice.Items[i]
		if item.ID == uuid.Nil {
			item.ID = uuid.New()
		}
		item.InvoiceID = invoice.ID
		if item.CreatedAt.IsZero() {
			item.CreatedAt = r.s.next()
		}
		copied := *item
		r.s.sales[item.ID] = &copied
	}
	copied := *invoice
	copied.Items = nil
	r.s.invoices[invoice.ID] = &copied
	return nil
}

func (r *invoiceRepo) get(id uuid.UUID, withItems bool) *entity.Invoice {
	inv, ok := r.s.invoices[id]
	if !ok {
		return nil
	}
	copied := *inv
	if copied.CustomerID != nil {
		if c, ok := r.s.customers[*copied.CustomerID]; ok {
			cc := *c
			copied.Customer = &cc
		}
	}
	if withItems {
		for _, sale := range r.s.sales {
			if sale.InvoiceID == id {
				sc := *sale
				if m, ok := r.s.medicines[sc.MedicineID]; ok {
					sc.Medicine = *m
				}
				copied.Items = append(copied.Items, sc)
			}
		}
		sort.Slice(copied.Items, func(i, j int) bool {
			return copied.Items[i].CreatedAt.Before(copied.Items[j].CreatedAt)
		})
	}
	return &copied
}

func (r *invoiceRepo) GetByID(ctx context.Context, id uuid.UUID) (*entity.Invoice, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return r.get(id, false), nil
}

func (r *invoiceRepo) GetWithItems(ctx context.Context, id uuid.UUID) (*entity.Invoice, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return r.get(id, true), nil
}

func (r *invoiceRepo) ListPending(ctx context.Context) ([]entity.Invoice, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []entity.Invoice
	for id, inv := range r.s.invoices {
		if inv.PaymentStatus == enum.PaymentStatusPending {
			out = append(out, *r.get(id, false))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (r *invoiceRepo) MarkPaid(ctx context.Context, id uuid.UUID, paymentMethod string) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	inv, ok := r.s.invoices[id]
	if !ok || inv.PaymentStatus != enum.PaymentStatusPending {
		return false, nil
	}
	inv.PaymentStatus = enum.PaymentStatusPaid
	inv.PaymentMethod = paymentMethod
	inv.UpdatedAt = time.Now()
	return true, nil
}

func (r *invoiceRepo) Search(ctx context.Context, query string, limit int) ([]entity.Invoice, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	q := strings.ToLower(query)
	var out []entity.Invoice
	for id, inv := range r.s.invoices {
		match := strings.Contains(strings.ToLower(inv.InvoiceNo), q)
		if !match && inv.CustomerID != nil {
			if c, ok := r.s.customers[*inv.CustomerID]; ok {
				match = strings.Contains(strings.ToLower(c.Name), q)
				if !match && c.Phone != nil {
					match = strings.Contains(*c.Phone, query)
				}
			}
		}
		if match {
			out = append(out, *r.get(id, true))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *invoiceRepo) GetSale(ctx context.Context, saleID uuid.UUID) (*entity.Sale, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	sale, ok := r.s.sales[saleID]
	if !ok {
		return nil, nil
	}
	copied := *sale
	if m, ok := r.s.medicines[copied.MedicineID]; ok {
		copied.Medicine = *m
	}
	return &copied, nil
}

// returnRepo

type returnRepo struct {
	s *Store
}

func (r *returnRepo) Create(ctx context.Context, ret *entity.MedicineReturn) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	sale, ok := r.s.sales[ret.SaleID]
	if !ok {
		return repository.ErrOverReturn
	}
	returned := 0
	for _, existing := range r.s.returns {
		if existing.SaleID == ret.SaleID {
			returned += existing.QuantityReturned
		}
	}
	if returned+ret.QuantityReturned > sale.QuantitySold {
		return repository.ErrOverReturn
	}

	if ret.ID == uuid.Nil {
		ret.ID = uuid.New()
	}
	if ret.CreatedAt.IsZero() {
		ret.CreatedAt = r.s.next()
	}
	copied := *ret
	r.s.returns[ret.ID] = &copied
	return nil
}

func (r *returnRepo) GetByID(ctx context.Context, id uuid.UUID) (*entity.MedicineReturn, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	ret, ok := r.s.returns[id]
	if !ok {
		return nil, nil
	}
	copied := *ret
	if m, ok := r.s.medicines[copied.MedicineID]; ok {
		copied.Medicine = *m
	}
	return &copied, nil
}

func (r *returnRepo) SumReturnedBySaleID(ctx context.Context, saleID uuid.UUID) (int, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	sum := 0
	for _, ret := range r.s.returns {
		if ret.SaleID == saleID {
			sum += ret.QuantityReturned
		}
	}
	return sum, nil
}

func (r *returnRepo) SumReturnedBySaleIDs(ctx context.Context, saleIDs []uuid.UUID) (map[uuid.UUID]int, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	want := make(map[uuid.UUID]bool, len(saleIDs))
	for _, id := range saleIDs {
		want[id] = true
	}
	sums := make(map[uuid.UUID]int)
	for _, ret := range r.s.returns {
		if want[ret.SaleID] {
			sums[ret.SaleID] += ret.QuantityReturned
		}
	}
	return sums, nil
}

func (r *returnRepo) ListReturns(ctx context.Context, customerID *uuid.UUID, params *pagination.PaginationParams) ([]entity.MedicineReturn, int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var all []entity.MedicineReturn
	for _, ret := range r.s.returns {
		if customerID != nil && (ret.CustomerID == nil || *ret.CustomerID != *customerID) {
			continue
		}
		copied := *ret
		if m, ok := r.s.medicines[copied.MedicineID]; ok {
			copied.Medicine = *m
		}
		all = append(all, copied)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].CreatedAt.After(all[j].CreatedAt) })
	return paginate(all, params)
}

func (r *returnRepo) CreateRefund(ctx context.Context, refund *entity.Refund) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if refund.ID == uuid.Nil {
		refund.ID = uuid.New()
	}
	if refund.CreatedAt.IsZero() {
		refund.CreatedAt = r.s.next()
	}
	copied := *refund
	r.s.refunds[refund.ID] = &copied
	return nil
}

func (r *returnRepo) GetRefundByReturnID(ctx context.Context, returnID uuid.UUID) (*entity.Refund, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, refund := range r.s.refunds {
		if refund.ReturnID == returnID {
			copied := *refund
			return &copied, nil
		}
	}
	return nil, nil
}

func (r *returnRepo) ListRefunds(ctx context.Context, customerID *uuid.UUID, params *pagination.PaginationParams) ([]entity.Refund, int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var all []entity.Refund
	for _, refund := range r.s.refunds {
		if customerID != nil && (refund.CustomerID == nil || *refund.CustomerID != *customerID) {
			continue
		}
		all = append(all, *refund)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].CreatedAt.After(all[j].CreatedAt) })
	return paginate(all, params)
}

func paginate[T any](items []T, params *pagination.PaginationParams) ([]T, int64, error) {
	total := int64(len(items))
	start := params.Offset()
	if start >= len(items) {
		return nil, total, nil
	}
	end := start + params.PerPage
	if end > len(items) {
		end = len(items)
	}
	return items[start:end], total, nil
}

// customerRepo

type customerRepo struct {
	s *Store
}

func (r *customerRepo) Create(ctx context.Context, customer *entity.Customer) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if customer.ID == uuid.Nil {
		customer.ID = uuid.New()
	}
	if customer.CreatedAt.IsZero() {
		customer.CreatedAt = r.s.next()
	}
	copied := *customer
	r.s.customers[customer.ID] = &copied
	return nil
}

func (r *customerRepo) GetByID(ctx context.Context, id uuid.UUID) (*entity.Customer, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	c, ok := r.s.customers[id]
	if !ok {
		return nil, nil
	}
	copied := *c
	return &copied, nil
}

func (r *customerRepo) AddCredit(ctx context.Context, id uuid.UUID, amount int64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if c, ok := r.s.customers[id]; ok {
		c.OutstandingCredit += amount
	}
	return nil
}

// userRepo

type userRepo struct {
	s *Store
}

func (r *userRepo) Create(ctx context.Context, user *entity.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if user.ID == uuid.Nil {
		user.ID = uuid.New()
	}
	copied := *user
	r.s.users[user.ID] = &copied
	return nil
}

func (r *userRepo) GetByID(ctx context.Context, id uuid.UUID) (*entity.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	u, ok := r.s.users[id]
	if !ok {
		return nil, nil
	}
	copied := *u
	return &copied, nil
}

func (r *userRepo) GetByEmail(ctx context.Context, email string) (*entity.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, u := range r.s.users {
		if u.Email == email {
			copied := *u
			return &copied, nil
		}
	}
	return nil, nil
}

// idempotencyRepo

type idempotencyRepo struct {
	s *Store
}

// Records are scoped per operator, so the map key is key+user.
func idemMapKey(key string, userID uuid.UUID) string {
	return key + "|" + userID.String()
}

func (r *idempotencyRepo) Create(ctx context.Context, key *entity.IdempotencyKey) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if key.ID == uuid.Nil {
		key.ID = uuid.New()
	}
	copied := *key
	r.s.idemKeys[idemMapKey(key.Key, key.UserID)] = &copied
	return nil
}

func (r *idempotencyRepo) GetByKey(ctx context.Context, key string, userID uuid.UUID) (*entity.IdempotencyKey, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	k, ok := r.s.idemKeys[idemMapKey(key, userID)]
	if !ok {
		return nil, nil
	}
	copied := *k
	return &copied, nil
}

func (r *idempotencyRepo) DeleteExpired(ctx context.Context) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for key, k := range r.s.idemKeys {
		if k.IsExpired() {
			delete(r.s.idemKeys, key)
		}
	}
	return nil
}
