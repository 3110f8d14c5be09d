package service

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"storefront/internal/models"
	"storefront/internal/store"
)

type fakeCatalog struct {
	mu            sync.Mutex
	products      map[primitive.ObjectID]*models.Product
	categories    map[primitive.ObjectID]bool
	subcategories map[primitive.ObjectID]bool
	named         []models.Category
	namedSubs     []models.SubCategory
	findErr       error
}

func newFakeCatalog() *fakeCatalog {
	return &fakeCatalog{
		products:      map[primitive.ObjectID]*models.Product{},
		categories:    map[primitive.ObjectID]bool{},
		subcategories: map[primitive.ObjectID]bool{},
	}
}

func cloneProduct(p *models.Product) *models.Product {
	cp := *p
	cp.Variants = make([]models.Variant, len(p.Variants))
	copy(cp.Variants, p.Variants)
	cp.Images = append(models.StringList(nil), p.Images...)
	return &cp
}

// addProduct stores an active single-variant product and returns the ids.
func (c *fakeCatalog) addProduct(name string, price float64, stock int) (primitive.ObjectID, primitive.ObjectID) {
	productID := primitive.NewObjectID()
	variantID := primitive.NewObjectID()
	c.mu.Lock()
	defer c.mu.Unlock()
	c.products[productID] = &models.Product{
		ID:     productID,
		Name:   name,
		Slug:   name,
		Images: models.StringList{name + ".png"},
		Variants: []models.Variant{{
			ID:        variantID,
			Label:     "1 kg",
			Price:     price,
			Stock:     stock,
			IsDefault: true,
		}},
		Status: true,
	}
	return productID, variantID
}

func (c *fakeCatalog) variant(productID, variantID primitive.ObjectID) models.Variant {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, _ := c.products[productID].FindVariant(variantID)
	return *v
}

func (c *fakeCatalog) setStock(productID, variantID primitive.ObjectID, stock int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, _ := c.products[productID].FindVariant(variantID)
	v.Stock = stock
}

func (c *fakeCatalog) setPrice(productID, variantID primitive.ObjectID, price float64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, _ := c.products[productID].FindVariant(variantID)
	v.Price = price
}

func (c *fakeCatalog) FindProduct(_ context.Context, id primitive.ObjectID) (*models.Product, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.findErr != nil {
		return nil, c.findErr
	}
	p, ok := c.products[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return cloneProduct(p), nil
}

func (c *fakeCatalog) FindProductBySlug(_ context.Context, slug string) (*models.Product, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, p := range c.products {
		if p.Slug == slug && p.Status {
			return cloneProduct(p), nil
		}
	}
	return nil, store.ErrNotFound
}

func (c *fakeCatalog) SlugExists(_ context.Context, slug string) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, p := range c.products {
		if p.Slug == slug {
			return true, nil
		}
	}
	return false, nil
}

func (c *fakeCatalog) InsertProduct(_ context.Context, product *models.Product) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if product.ID.IsZero() {
		product.ID = primitive.NewObjectID()
	}
	c.products[product.ID] = cloneProduct(product)
	return nil
}

func (c *fakeCatalog) DeactivateProduct(_ context.Context, id primitive.ObjectID) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	p, ok := c.products[id]
	if !ok {
		return store.ErrNotFound
	}
	p.Status = false
	return nil
}

func (c *fakeCatalog) SetVariantStock(_ context.Context, productID, variantID primitive.ObjectID, stock int) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	p, ok := c.products[productID]
	if !ok {
		return store.ErrNotFound
	}
	v, ok := p.FindVariant(variantID)
	if !ok {
		return store.ErrNotFound
	}
	v.Stock = stock
	return nil
}

func (c *fakeCatalog) ActiveCategoryExists(_ context.Context, id primitive.ObjectID) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.categories[id], nil
}

func (c *fakeCatalog) ActiveSubCategoryExists(_ context.Context, id primitive.ObjectID) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.subcategories[id], nil
}

func (c *fakeCatalog) InsertCategory(_ context.Context, category *models.Category) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, existing := range c.named {
		if existing.Slug == category.Slug {
			return store.ErrDuplicate
		}
	}
	category.ID = primitive.NewObjectID()
	c.named = append(c.named, *category)
	c.categories[category.ID] = category.Status
	return nil
}

func (c *fakeCatalog) InsertSubCategory(_ context.Context, sub *models.SubCategory) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, existing := range c.namedSubs {
		if existing.Slug == sub.Slug {
			return store.ErrDuplicate
		}
	}
	sub.ID = primitive.NewObjectID()
	c.namedSubs = append(c.namedSubs, *sub)
	c.subcategories[sub.ID] = sub.Status
	return nil
}

func (c *fakeCatalog) ListCategories(context.Context) ([]models.Category, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]models.Category(nil), c.named...), nil
}

func (c *fakeCatalog) ListSubCategories(_ context.Context, categoryID primitive.ObjectID) ([]models.SubCategory, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	var out []models.SubCategory
	for _, sub := range c.namedSubs {
		for _, parent := range sub.Category {
			if categoryID.IsZero() || parent == categoryID {
				out = append(out, sub)
				break
			}
		}
	}
	return out, nil
}

func (c *fakeCatalog) FindCategoryBySlug(_ context.Context, slug string) (*models.Category, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, category := range c.named {
		if category.Slug == slug && category.Status {
			cp := category
			return &cp, nil
		}
	}
	return nil, store.ErrNotFound
}

func (c *fakeCatalog) FindSubCategoryBySlug(_ context.Context, slug string) (*models.SubCategory, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, sub := range c.namedSubs {
		if sub.Slug == slug && sub.Status {
			cp := sub
			return &cp, nil
		}
	}
	return nil, store.ErrNotFound
}

// ListProducts approximates the Mongo listing: $text becomes a
// case-insensitive word match and array sorts use min/max variant price.
func (c *fakeCatalog) ListProducts(_ context.Context, f store.ProductFilter) ([]models.Product, int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var out []models.Product
	for _, p := range c.products {
		if !p.Status ||
			(!f.Category.IsZero() && p.Category != f.Category) ||
			(!f.SubCategory.IsZero() && p.SubCategory != f.SubCategory) ||
			(f.Search != "" && !matchesWord(p, f.Search)) ||
			!priceInRange(p, f.MinPrice, f.MaxPrice) {
			continue
		}
		out = append(out, *cloneProduct(p))
	}

	sort.Slice(out, func(i, j int) bool {
		switch f.Sort {
		case store.SortPriceAsc:
			return priceBound(out[i], false) < priceBound(out[j], false)
		case store.SortPriceDesc:
			return priceBound(out[i], true) > priceBound(out[j], true)
		}
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID.Hex() > out[j].ID.Hex()
	})

	total := int64(len(out))
	if f.Limit > 0 {
		page := f.Page
		if page < 1 {
			page = 1
		}
		start := min((page-1)*f.Limit, total)
		end := min(start+f.Limit, total)
		out = out[start:end]
	}
	return out, total, nil
}

func matchesWord(p *models.Product, search string) bool {
	words := strings.Fields(strings.ToLower(p.Name + " " + p.Description))
	for _, term := range strings.Fields(strings.ToLower(search)) {
		for _, w := range words {
			if w == term {
				return true
			}
		}
	}
	return false
}

func priceInRange(p *models.Product, lo, hi *float64) bool {
	if lo == nil && hi == nil {
		return true
	}
	for _, v := range p.Variants {
		if (lo == nil || v.Price >= *lo) && (hi == nil || v.Price <= *hi) {
			return true
		}
	}
	return false
}

func priceBound(p models.Product, highest bool) float64 {
	bound := p.Variants[0].Price
	for _, v := range p.Variants[1:] {
		if (highest && v.Price > bound) || (!highest && v.Price < bound) {
			bound = v.Price
		}
	}
	return bound
}

// DecrementVariantStock mirrors the guarded $inc: check and write happen
// under one lock.
func (c *fakeCatalog) DecrementVariantStock(_ context.Context, productID, variantID primitive.ObjectID, qty int) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	p, ok := c.products[productID]
	if !ok {
		return false, nil
	}
	v, ok := p.FindVariant(variantID)
	if !ok || v.Stock < qty {
		return false, nil
	}
	v.Stock -= qty
	return true, nil
}

func (c *fakeCatalog) IncrementVariantStock(_ context.Context, productID, variantID primitive.ObjectID, qty int) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	p, ok := c.products[productID]
	if !ok {
		return store.ErrNotFound
	}
	v, ok := p.FindVariant(variantID)
	if !ok {
		return store.ErrNotFound
	}
	v.Stock += qty
	return nil
}

type fakeCarts struct {
	mu    sync.Mutex
	lines map[primitive.ObjectID]*models.CartLine
	// clearErr makes DeleteByUser fail, for the post-commit cleanup path.
	clearErr error
	// incrementErr makes every merge lose its guarded update.
	incrementErr error
}

func newFakeCarts() *fakeCarts {
	return &fakeCarts{lines: map[primitive.ObjectID]*models.CartLine{}}
}

func (f *fakeCarts) ListByUser(_ context.Context, userID primitive.ObjectID) ([]models.CartLine, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.CartLine
	for _, l := range f.lines {
		if l.UserID == userID {
			out = append(out, *l)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (f *fakeCarts) FindLine(_ context.Context, userID, lineID primitive.ObjectID) (*models.CartLine, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	l, ok := f.lines[lineID]
	if !ok || l.UserID != userID {
		return nil, store.ErrNotFound
	}
	cp := *l
	return &cp, nil
}

func (f *fakeCarts) FindByVariant(_ context.Context, userID, productID, variantID primitive.ObjectID) (*models.CartLine, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, l := range f.lines {
		if l.UserID == userID && l.ProductID == productID && l.VariantID == variantID {
			cp := *l
			return &cp, nil
		}
	}
	return nil, store.ErrNotFound
}

func (f *fakeCarts) Insert(_ context.Context, line *models.CartLine) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, l := range f.lines {
		if l.UserID == line.UserID && l.ProductID == line.ProductID && l.VariantID == line.VariantID {
			return store.ErrDuplicate
		}
	}
	if line.ID.IsZero() {
		line.ID = primitive.NewObjectID()
	}
	cp := *line
	f.lines[line.ID] = &cp
	return nil
}

func (f *fakeCarts) IncrementQuantity(_ context.Context, lineID primitive.ObjectID, delta, limit int) (*models.CartLine, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.incrementErr != nil {
		return nil, f.incrementErr
	}
	l, ok := f.lines[lineID]
	if !ok || l.Quantity+delta > limit {
		return nil, store.ErrConflict
	}
	l.Quantity += delta
	cp := *l
	return &cp, nil
}

func (f *fakeCarts) SetQuantity(_ context.Context, userID, lineID primitive.ObjectID, quantity int) (*models.CartLine, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	l, ok := f.lines[lineID]
	if !ok || l.UserID != userID {
		return nil, store.ErrNotFound
	}
	l.Quantity = quantity
	cp := *l
	return &cp, nil
}

func (f *fakeCarts) Delete(_ context.Context, userID, lineID primitive.ObjectID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	l, ok := f.lines[lineID]
	if !ok || l.UserID != userID {
		return store.ErrNotFound
	}
	delete(f.lines, lineID)
	return nil
}

func (f *fakeCarts) DeleteByUser(_ context.Context, userID primitive.ObjectID) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.clearErr != nil {
		return 0, f.clearErr
	}
	var n int64
	for id, l := range f.lines {
		if l.UserID == userID {
			delete(f.lines, id)
			n++
		}
	}
	return n, nil
}

func (f *fakeCarts) count(userID primitive.ObjectID) int {
	lines, _ := f.ListByUser(context.Background(), userID)
	return len(lines)
}

type fakeAddresses struct {
	mu        sync.Mutex
	addresses []*models.Address
}

func (f *fakeAddresses) find(userID, addressID primitive.ObjectID) *models.Address {
	for _, a := range f.addresses {
		if a.ID == addressID && a.UserID == userID && a.Status {
			return a
		}
	}
	return nil
}

func (f *fakeAddresses) Insert(_ context.Context, address *models.Address) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if address.ID.IsZero() {
		address.ID = primitive.NewObjectID()
	}
	cp := *address
	f.addresses = append(f.addresses, &cp)
	return nil
}

func (f *fakeAddresses) ListActive(_ context.Context, userID primitive.ObjectID) ([]models.Address, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.Address
	for _, a := range f.addresses {
		if a.UserID == userID && a.Status {
			out = append(out, *a)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].IsDefault != out[j].IsDefault {
			return out[i].IsDefault
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

func (f *fakeAddresses) FindActive(_ context.Context, userID, addressID primitive.ObjectID) (*models.Address, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	a := f.find(userID, addressID)
	if a == nil {
		return nil, store.ErrNotFound
	}
	cp := *a
	return &cp, nil
}

func (f *fakeAddresses) Update(_ context.Context, userID, addressID primitive.ObjectID, in store.AddressUpdate) (*models.Address, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	a := f.find(userID, addressID)
	if a == nil {
		return nil, store.ErrNotFound
	}
	if in.AddressLine != nil {
		a.AddressLine = *in.AddressLine
	}
	if in.City != nil {
		a.City = *in.City
	}
	if in.State != nil {
		a.State = *in.State
	}
	if in.Pincode != nil {
		a.Pincode = *in.Pincode
	}
	if in.Country != nil {
		a.Country = *in.Country
	}
	if in.Mobile != nil {
		a.Mobile = *in.Mobile
	}
	if in.IsDefault != nil {
		a.IsDefault = *in.IsDefault
	}
	cp := *a
	return &cp, nil
}

func (f *fakeAddresses) SoftDelete(_ context.Context, userID, addressID primitive.ObjectID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	a := f.find(userID, addressID)
	if a == nil {
		return store.ErrNotFound
	}
	a.Status = false
	a.IsDefault = false
	return nil
}

func (f *fakeAddresses) UnsetDefaults(_ context.Context, userID, keepID primitive.ObjectID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, a := range f.addresses {
		if a.UserID == userID && a.Status && a.ID != keepID {
			a.IsDefault = false
		}
	}
	return nil
}

func (f *fakeAddresses) MarkDefault(_ context.Context, userID, addressID primitive.ObjectID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	a := f.find(userID, addressID)
	if a == nil {
		return store.ErrNotFound
	}
	a.IsDefault = true
	return nil
}

type fakeOrders struct {
	mu     sync.Mutex
	orders []*models.Order
	// onInsert runs after an order is stored, outside the lock.
	onInsert func(*models.Order)
}

func (f *fakeOrders) Insert(_ context.Context, order *models.Order) error {
	f.mu.Lock()
	if order.IdempotencyKey != "" {
		for _, o := range f.orders {
			if o.UserID == order.UserID && o.IdempotencyKey == order.IdempotencyKey {
				f.mu.Unlock()
				return store.ErrDuplicate
			}
		}
	}
	if order.ID.IsZero() {
		order.ID = primitive.NewObjectID()
	}
	cp := *order
	cp.Items = append([]models.OrderItem(nil), order.Items...)
	f.orders = append(f.orders, &cp)
	hook := f.onInsert
	f.mu.Unlock()

	if hook != nil {
		hook(order)
	}
	return nil
}

func (f *fakeOrders) findOne(match func(*models.Order) bool) (*models.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, o := range f.orders {
		if match(o) {
			cp := *o
			return &cp, nil
		}
	}
	return nil, store.ErrNotFound
}

func (f *fakeOrders) FindByID(_ context.Context, orderID primitive.ObjectID) (*models.Order, error) {
	return f.findOne(func(o *models.Order) bool { return o.ID == orderID })
}

func (f *fakeOrders) FindForUser(_ context.Context, userID, orderID primitive.ObjectID) (*models.Order, error) {
	return f.findOne(func(o *models.Order) bool { return o.ID == orderID && o.UserID == userID })
}

func (f *fakeOrders) FindByIdempotencyKey(_ context.Context, userID primitive.ObjectID, key string) (*models.Order, error) {
	return f.findOne(func(o *models.Order) bool { return o.UserID == userID && o.IdempotencyKey == key })
}

func (f *fakeOrders) ListByUser(_ context.Context, userID primitive.ObjectID) ([]models.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.Order
	for i := len(f.orders) - 1; i >= 0; i-- {
		if f.orders[i].UserID == userID {
			out = append(out, *f.orders[i])
		}
	}
	return out, nil
}

func (f *fakeOrders) List(_ context.Context, filter store.OrderFilter) ([]models.Order, int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.Order
	for i := len(f.orders) - 1; i >= 0; i-- {
		if filter.Status != nil && f.orders[i].OrderStatus != *filter.Status {
			continue
		}
		out = append(out, *f.orders[i])
	}
	total := int64(len(out))
	if filter.Limit > 0 {
		page := filter.Page
		if page < 1 {
			page = 1
		}
		start := (page - 1) * filter.Limit
		if start > total {
			start = total
		}
		end := start + filter.Limit
		if end > total {
			end = total
		}
		out = out[start:end]
	}
	return out, total, nil
}

func (f *fakeOrders) UpdateStatus(_ context.Context, orderID primitive.ObjectID, expect, next store.StatusPair) (*models.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, o := range f.orders {
		if o.ID != orderID {
			continue
		}
		if o.OrderStatus != expect.OrderStatus || o.Payment.Status != expect.PaymentStatus {
			return nil, store.ErrConflict
		}
		o.OrderStatus = next.OrderStatus
		o.Payment.Status = next.PaymentStatus
		cp := *o
		return &cp, nil
	}
	return nil, store.ErrConflict
}

func (f *fakeOrders) ReleaseIdempotencyKey(_ context.Context, orderID primitive.ObjectID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, o := range f.orders {
		if o.ID == orderID {
			o.IdempotencyKey = ""
		}
	}
	return nil
}

func (f *fakeOrders) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.orders)
}

type fakeLocks struct {
	mu    sync.Mutex
	held  map[primitive.ObjectID]string
	calls int
}

func newFakeLocks() *fakeLocks {
	return &fakeLocks{held: map[primitive.ObjectID]string{}}
}

func (l *fakeLocks) Acquire(_ context.Context, userID primitive.ObjectID, _ time.Duration) (string, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.calls++
	if _, ok := l.held[userID]; ok {
		return "", store.ErrLocked
	}
	token := uuid.NewString()
	l.held[userID] = token
	return token, nil
}

func (l *fakeLocks) Release(_ context.Context, userID primitive.ObjectID, token string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.held[userID] == token {
		delete(l.held, userID)
	}
	return nil
}

type inlineTx struct{}

func (inlineTx) WithinTransaction(ctx context.Context, fn func(context.Context) error) error {
	return fn(ctx)
}
