package service

import (
	"context"
	"errors"
	"sync"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"golang.org/x/sync/errgroup"

	"storefront/internal/models"
	"storefront/internal/store"
)

const productLookupConcurrency = 8

// loadProducts fetches each distinct product once, fresh from the catalog.
// Products that no longer exist are simply absent from the result.
func loadProducts(ctx context.Context, reader ProductReader, lines []models.CartLine) (map[primitive.ObjectID]*models.Product, error) {
	ids := make([]primitive.ObjectID, 0, len(lines))
	seen := make(map[primitive.ObjectID]struct{}, len(lines))
	for _, line := range lines {
		if _, ok := seen[line.ProductID]; ok {
			continue
		}
		seen[line.ProductID] = struct{}{}
		ids = append(ids, line.ProductID)
	}

	var mu sync.Mutex
	products := make(map[primitive.ObjectID]*models.Product, len(ids))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(productLookupConcurrency)
	for _, id := range ids {
		id := id
		g.Go(func() error {
			product, err := reader.FindProduct(gctx, id)
			if errors.Is(err, store.ErrNotFound) {
				return nil
			}
			if err != nil {
				return err
			}
			mu.Lock()
			products[id] = product
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return products, nil
}
