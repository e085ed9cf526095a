package service

import (
	"context"
	"fmt"
	"time"

	"marketplace-api/internal/dto"
	"marketplace-api/internal/model"
	"marketplace-api/internal/repository"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Fakes en memoria con la misma semántica que los repos de Mongo
// (CAS, índices únicos, orden de inserción).

type fakeOrderRepo struct {
	orders map[primitive.ObjectID]*model.Order
}

func newFakeOrderRepo() *fakeOrderRepo {
	return &fakeOrderRepo{orders: make(map[primitive.ObjectID]*model.Order)}
}

func (f *fakeOrderRepo) Create(_ context.Context, o *model.Order) error {
	o.ID = primitive.NewObjectID()
	now := time.Now().UTC()
	o.CreatedAt = now
	o.UpdatedAt = now
	f.orders[o.ID] = o
	return nil
}

func (f *fakeOrderRepo) FindByID(_ context.Context, id primitive.ObjectID) (*model.Order, error) {
	o, ok := f.orders[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return o, nil
}

func (f *fakeOrderRepo) UpdateStatus(_ context.Context, orderID primitive.ObjectID, fromStatus, toStatus string, entry model.TrackingEntry) error {
	o, ok := f.orders[orderID]
	if !ok || o.OrderStatus != fromStatus {
		return repository.ErrStale
	}
	o.OrderStatus = toStatus
	o.TrackingHistory = append(o.TrackingHistory, entry)
	o.UpdatedAt = time.Now().UTC()
	return nil
}

func (f *fakeOrderRepo) AssignVendor(_ context.Context, orderID, vendorID primitive.ObjectID, fromStatus string, entry model.TrackingEntry) error {
	o, ok := f.orders[orderID]
	if !ok || o.OrderStatus != fromStatus {
		return repository.ErrStale
	}
	v := vendorID
	o.Vendor = &v
	o.OrderStatus = entry.Status
	o.TrackingHistory = append(o.TrackingHistory, entry)
	return nil
}

func (f *fakeOrderRepo) UpdatePaymentStatus(_ context.Context, orderID primitive.ObjectID, status string) error {
	o, ok := f.orders[orderID]
	if !ok {
		return repository.ErrNotFound
	}
	o.PaymentStatus = status
	return nil
}

func (f *fakeOrderRepo) Delete(_ context.Context, id primitive.ObjectID) error {
	if _, ok := f.orders[id]; !ok {
		return repository.ErrNotFound
	}
	delete(f.orders, id)
	return nil
}

func (f *fakeOrderRepo) FindByCustomer(_ context.Context, customerID primitive.ObjectID) ([]*model.Order, error) {
	var out []*model.Order
	for _, o := range f.orders {
		if o.Customer == customerID {
			out = append(out, o)
		}
	}
	return out, nil
}

func (f *fakeOrderRepo) FindByVendor(_ context.Context, vendorID primitive.ObjectID) ([]*model.Order, error) {
	var out []*model.Order
	for _, o := range f.orders {
		if o.Vendor != nil && *o.Vendor == vendorID {
			out = append(out, o)
		}
	}
	return out, nil
}

func (f *fakeOrderRepo) FindAll(_ context.Context) ([]*model.Order, error) {
	var out []*model.Order
	for _, o := range f.orders {
		out = append(out, o)
	}
	return out, nil
}

func (f *fakeOrderRepo) Count(_ context.Context) (int64, error) {
	return int64(len(f.orders)), nil
}

// staleReadOrderRepo simula un escritor concurrente: las lecturas devuelven
// un estado viejo mientras las escrituras van contra el documento real.
type staleReadOrderRepo struct {
	*fakeOrderRepo
	staleStatus string
}

func (s *staleReadOrderRepo) FindByID(ctx context.Context, id primitive.ObjectID) (*model.Order, error) {
	o, err := s.fakeOrderRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	stale := *o
	stale.OrderStatus = s.staleStatus
	return &stale, nil
}

type fakeStatusRepo struct {
	recs []model.StatusRecord
	seen map[string]bool
}

func newFakeStatusRepo() *fakeStatusRepo {
	return &fakeStatusRepo{seen: make(map[string]bool)}
}

func (f *fakeStatusRepo) Insert(_ context.Context, rec *model.StatusRecord) error {
	key := rec.Order.Hex() + "|" + rec.Status
	if f.seen[key] {
		return repository.ErrDuplicate
	}
	f.seen[key] = true
	rec.ID = primitive.NewObjectID()
	rec.CreatedAt = time.Now().UTC()
	f.recs = append(f.recs, *rec)
	return nil
}

func (f *fakeStatusRepo) FindByOrder(_ context.Context, orderID primitive.ObjectID) ([]model.StatusRecord, error) {
	var out []model.StatusRecord
	for _, r := range f.recs {
		if r.Order == orderID {
			out = append(out, r)
		}
	}
	return out, nil
}

func (f *fakeStatusRepo) Delete(_ context.Context, id primitive.ObjectID) error {
	for i, r := range f.recs {
		if r.ID == id {
			delete(f.seen, r.Order.Hex()+"|"+r.Status)
			f.recs = append(f.recs[:i], f.recs[i+1:]...)
			return nil
		}
	}
	return repository.ErrNotFound
}

func (f *fakeStatusRepo) DeleteByOrder(_ context.Context, orderID primitive.ObjectID) error {
	var keep []model.StatusRecord
	for _, r := range f.recs {
		if r.Order != orderID {
			keep = append(keep, r)
		} else {
			delete(f.seen, r.Order.Hex()+"|"+r.Status)
		}
	}
	f.recs = keep
	return nil
}

// failingStatusRepo rechaza todos los inserts.
type failingStatusRepo struct {
	*fakeStatusRepo
}

func (f *failingStatusRepo) Insert(_ context.Context, _ *model.StatusRecord) error {
	return fmt.Errorf("collection unavailable")
}

type fakeUserRepo struct {
	users map[primitive.ObjectID]*model.User
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: make(map[primitive.ObjectID]*model.User)}
}

func (f *fakeUserRepo) Create(_ context.Context, u *model.User) error {
	for _, existing := range f.users {
		if existing.Email == u.Email {
			return repository.ErrDuplicate
		}
	}
	u.ID = primitive.NewObjectID()
	u.CreatedAt = time.Now().UTC()
	f.users[u.ID] = u
	return nil
}

func (f *fakeUserRepo) FindByEmail(_ context.Context, email string) (*model.User, error) {
	for _, u := range f.users {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (f *fakeUserRepo) FindByID(_ context.Context, id primitive.ObjectID) (*model.User, error) {
	u, ok := f.users[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return u, nil
}

func (f *fakeUserRepo) FindByRole(_ context.Context, role string) ([]*model.User, error) {
	var out []*model.User
	for _, u := range f.users {
		if u.Role == role {
			out = append(out, u)
		}
	}
	return out, nil
}

func (f *fakeUserRepo) FindPendingVendors(_ context.Context) ([]*model.User, error) {
	var out []*model.User
	for _, u := range f.users {
		if u.Role == model.RoleVendor && !u.Approved {
			out = append(out, u)
		}
	}
	return out, nil
}

func (f *fakeUserRepo) UpdateApproval(_ context.Context, id primitive.ObjectID, approved bool) (*model.User, error) {
	u, ok := f.users[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	u.Approved = approved
	return u, nil
}

func (f *fakeUserRepo) CountByRole(_ context.Context, role string) (int64, error) {
	var n int64
	for _, u := range f.users {
		if u.Role == role {
			n++
		}
	}
	return n, nil
}

func (f *fakeUserRepo) add(role string) *model.User {
	u := &model.User{
		ID:    primitive.NewObjectID(),
		Name:  role + " user",
		Email: fmt.Sprintf("%s-%s@example.com", role, primitive.NewObjectID().Hex()[:6]),
		Role:  role,
	}
	f.users[u.ID] = u
	return u
}

type fakePublisher struct {
	events  []dto.OrderEvent
	failing bool
}

func (f *fakePublisher) PublishOrderEvent(_ context.Context, event dto.OrderEvent) error {
	if f.failing {
		return fmt.Errorf("broker down")
	}
	f.events = append(f.events, event)
	return nil
}

type fakeProductRepo struct {
	products map[primitive.ObjectID]*model.Product
}

func newFakeProductRepo() *fakeProductRepo {
	return &fakeProductRepo{products: make(map[primitive.ObjectID]*model.Product)}
}

func (f *fakeProductRepo) Create(_ context.Context, p *model.Product) error {
	p.ID = primitive.NewObjectID()
	f.products[p.ID] = p
	return nil
}

func (f *fakeProductRepo) FindByID(_ context.Context, id primitive.ObjectID) (*model.Product, error) {
	p, ok := f.products[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return p, nil
}

func (f *fakeProductRepo) FindPublic(_ context.Context, category string) ([]*model.Product, error) {
	var out []*model.Product
	for _, p := range f.products {
		if p.IsActive && (category == "" || p.Category == category) {
			out = append(out, p)
		}
	}
	return out, nil
}

func (f *fakeProductRepo) FindByVendor(_ context.Context, vendorID primitive.ObjectID) ([]*model.Product, error) {
	var out []*model.Product
	for _, p := range f.products {
		if p.Vendor == vendorID {
			out = append(out, p)
		}
	}
	return out, nil
}

func (f *fakeProductRepo) Update(_ context.Context, id primitive.ObjectID, fields bson.M) (*model.Product, error) {
	p, ok := f.products[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	if v, ok := fields["name"]; ok {
		p.Name = v.(string)
	}
	if v, ok := fields["price"]; ok {
		p.Price = v.(float64)
	}
	if v, ok := fields["stock"]; ok {
		p.Stock = v.(int)
	}
	if v, ok := fields["is_active"]; ok {
		p.IsActive = v.(bool)
	}
	return p, nil
}

func (f *fakeProductRepo) Delete(_ context.Context, id primitive.ObjectID) error {
	if _, ok := f.products[id]; !ok {
		return repository.ErrNotFound
	}
	delete(f.products, id)
	return nil
}

func (f *fakeProductRepo) DecrementStock(_ context.Context, id primitive.ObjectID, qty int) error {
	p, ok := f.products[id]
	if !ok {
		return repository.ErrNotFound
	}
	if p.Stock < qty {
		return repository.ErrStale
	}
	p.Stock -= qty
	return nil
}

func (f *fakeProductRepo) IncrementStock(_ context.Context, id primitive.ObjectID, qty int) error {
	p, ok := f.products[id]
	if !ok {
		return repository.ErrNotFound
	}
	p.Stock += qty
	return nil
}

func (f *fakeProductRepo) Count(_ context.Context) (int64, error) {
	return int64(len(f.products)), nil
}

type otpEntry struct {
	code    string
	expires time.Time
}

// fakeOTPStore replica la semántica del store de Redis con un reloj
// inyectable para probar expiración.
type fakeOTPStore struct {
	codes map[string]otpEntry
	now   func() time.Time
}

func newFakeOTPStore() *fakeOTPStore {
	return &fakeOTPStore{codes: make(map[string]otpEntry), now: time.Now}
}

func (f *fakeOTPStore) Put(_ context.Context, email, code string, ttl time.Duration) error {
	f.codes[email] = otpEntry{code: code, expires: f.now().Add(ttl)}
	return nil
}

func (f *fakeOTPStore) Delete(_ context.Context, email string) error {
	delete(f.codes, email)
	return nil
}

func (f *fakeOTPStore) Consume(_ context.Context, email, code string) (bool, bool, error) {
	entry, ok := f.codes[email]
	if !ok || f.now().After(entry.expires) {
		delete(f.codes, email)
		return false, false, nil
	}
	if entry.code != code {
		return false, true, nil
	}
	delete(f.codes, email)
	return true, true, nil
}

type fakeMailer struct {
	sent []string
	fail bool
}

func (f *fakeMailer) Send(to, subject, body string) error {
	if f.fail {
		return fmt.Errorf("smtp unreachable")
	}
	f.sent = append(f.sent, body)
	return nil
}

type fakePaymentRepo struct {
	payments map[string]*model.Payment // por transaction_id
	events   map[string]bool
}

func newFakePaymentRepo() *fakePaymentRepo {
	return &fakePaymentRepo{
		payments: make(map[string]*model.Payment),
		events:   make(map[string]bool),
	}
}

func (f *fakePaymentRepo) Create(_ context.Context, p *model.Payment) error {
	p.ID = primitive.NewObjectID()
	p.CreatedAt = time.Now().UTC()
	f.payments[p.TransactionID] = p
	return nil
}

func (f *fakePaymentRepo) FindAll(_ context.Context) ([]*model.Payment, error) {
	var out []*model.Payment
	for _, p := range f.payments {
		out = append(out, p)
	}
	return out, nil
}

func (f *fakePaymentRepo) UpdateStatusByTransaction(_ context.Context, transactionID, status string) (*model.Payment, error) {
	p, ok := f.payments[transactionID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	p.Status = status
	return p, nil
}

func (f *fakePaymentRepo) MarkEventSeen(_ context.Context, eventID string) error {
	if f.events[eventID] {
		return repository.ErrDuplicate
	}
	f.events[eventID] = true
	return nil
}

func (f *fakePaymentRepo) UnmarkEvent(_ context.Context, eventID string) error {
	delete(f.events, eventID)
	return nil
}

func (f *fakePaymentRepo) Count(_ context.Context) (int64, error) {
	return int64(len(f.payments)), nil
}

type fakeNotificationRepo struct {
	notifications []*model.Notification
}

func (f *fakeNotificationRepo) Create(_ context.Context, n *model.Notification) error {
	n.ID = primitive.NewObjectID()
	n.CreatedAt = time.Now().UTC()
	f.notifications = append(f.notifications, n)
	return nil
}

func (f *fakeNotificationRepo) FindByRecipient(_ context.Context, recipient primitive.ObjectID) ([]*model.Notification, error) {
	var out []*model.Notification
	for _, n := range f.notifications {
		if n.Recipient == recipient {
			out = append(out, n)
		}
	}
	return out, nil
}

func (f *fakeNotificationRepo) FindAll(_ context.Context) ([]*model.Notification, error) {
	return f.notifications, nil
}

func (f *fakeNotificationRepo) MarkRead(_ context.Context, id, recipient primitive.ObjectID) (*model.Notification, error) {
	for _, n := range f.notifications {
		if n.ID == id && n.Recipient == recipient {
			n.IsRead = true
			return n, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (f *fakeNotificationRepo) MarkAllRead(_ context.Context, recipient primitive.ObjectID) error {
	for _, n := range f.notifications {
		if n.Recipient == recipient {
			n.IsRead = true
		}
	}
	return nil
}

type fakeChatRepo struct {
	chats map[primitive.ObjectID]*model.Chat
}

func newFakeChatRepo() *fakeChatRepo {
	return &fakeChatRepo{chats: make(map[primitive.ObjectID]*model.Chat)}
}

func (f *fakeChatRepo) Create(_ context.Context, c *model.Chat) error {
	c.ID = primitive.NewObjectID()
	now := time.Now().UTC()
	c.CreatedAt = now
	c.UpdatedAt = now
	f.chats[c.ID] = c
	return nil
}

func (f *fakeChatRepo) FindByID(_ context.Context, id primitive.ObjectID) (*model.Chat, error) {
	c, ok := f.chats[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return c, nil
}

func (f *fakeChatRepo) FindByParticipants(_ context.Context, customer, vendor primitive.ObjectID) (*model.Chat, error) {
	for _, c := range f.chats {
		if c.Customer == customer && c.Vendor == vendor {
			return c, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (f *fakeChatRepo) FindByCustomer(_ context.Context, customer primitive.ObjectID) ([]*model.Chat, error) {
	var out []*model.Chat
	for _, c := range f.chats {
		if c.Customer == customer {
			out = append(out, c)
		}
	}
	return out, nil
}

func (f *fakeChatRepo) FindByVendor(_ context.Context, vendor primitive.ObjectID) ([]*model.Chat, error) {
	var out []*model.Chat
	for _, c := range f.chats {
		if c.Vendor == vendor {
			out = append(out, c)
		}
	}
	return out, nil
}

func (f *fakeChatRepo) AppendMessage(_ context.Context, chatID primitive.ObjectID, msg model.ChatMessage) error {
	c, ok := f.chats[chatID]
	if !ok {
		return repository.ErrNotFound
	}
	c.Messages = append(c.Messages, msg)
	c.UpdatedAt = time.Now().UTC()
	return nil
}

type fakeAssist struct {
	reply string
	fail  bool
}

func (f *fakeAssist) GenerateReply(_ context.Context, _ string) (string, error) {
	if f.fail {
		return "", fmt.Errorf("model unavailable")
	}
	return f.reply, nil
}
