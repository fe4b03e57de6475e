package memory

import (
	"context"
	"fmt"
	"sort"

	"github.com/dishdash/dishdash/internal/core/domain"
)

// PostRepo implements ports.PostRepository on a Store.
type PostRepo struct {
	s *Store
}

// Create stores a post. Re-creating an existing id is a no-op.
func (r *PostRepo) Create(ctx context.Context, p *domain.Post) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.posts[p.ID]; ok {
		return nil
	}
	if _, ok := r.s.places[p.PlaceID]; !ok {
		return fmt.Errorf("place %s: %w", p.PlaceID, domain.ErrNotFound)
	}

	item := &spatialPost{post: *p, rect: pointRect(p.Location)}
	item.post.Photos = append([]string(nil), p.Photos...)
	if item.post.CreatedAt.IsZero() {
		item.post.CreatedAt = r.s.now()
	}
	r.s.posts[p.ID] = item
	r.s.postTree.Insert(item)

	sum := r.s.ratings[p.PlaceID]
	sum.total += p.Satisfaction
	sum.count++
	r.s.ratings[p.PlaceID] = sum
	return nil
}

// GetByID returns a post by id.
func (r *PostRepo) GetByID(ctx context.Context, id string) (*domain.Post, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	item, ok := r.s.posts[id]
	if !ok {
		return nil, fmt.Errorf("post %s: %w", id, domain.ErrNotFound)
	}
	p := item.post
	return &p, nil
}

// Delete removes a post. Deleting a missing post is not an error.
func (r *PostRepo) Delete(ctx context.Context, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	item, ok := r.s.posts[id]
	if !ok {
		return nil
	}
	r.s.postTree.Delete(item)
	delete(r.s.posts, id)

	sum := r.s.ratings[item.post.PlaceID]
	sum.total -= item.post.Satisfaction
	sum.count--
	if sum.count <= 0 {
		delete(r.s.ratings, item.post.PlaceID)
	} else {
		r.s.ratings[item.post.PlaceID] = sum
	}
	return nil
}

// FindInBounds returns the newest limit posts inside box, oldest first.
func (r *PostRepo) FindInBounds(ctx context.Context, box domain.BoundingBox, limit int) ([]domain.Post, error) {
	rect, err := boxRect(box)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidInput, err)
	}

	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	var posts []domain.Post
	for _, hit := range r.s.postTree.SearchIntersect(rect) {
		item, ok := hit.(*spatialPost)
		if !ok || !box.Contains(item.post.Location) {
			continue
		}
		posts = append(posts, item.post)
	}
	sortOldestFirst(posts)
	if limit > 0 && len(posts) > limit {
		posts = posts[len(posts)-limit:]
	}
	return posts, nil
}

// ListByPlace returns a page of a place's posts, newest first, and the total count.
func (r *PostRepo) ListByPlace(ctx context.Context, placeID string, offset, limit int) ([]domain.Post, int, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	var posts []domain.Post
	for _, item := range r.s.posts {
		if item.post.PlaceID == placeID {
			posts = append(posts, item.post)
		}
	}
	sortOldestFirst(posts)
	for i, j := 0, len(posts)-1; i < j; i, j = i+1, j-1 {
		posts[i], posts[j] = posts[j], posts[i]
	}

	total := len(posts)
	if offset >= total {
		return []domain.Post{}, total, nil
	}
	end := offset + limit
	if limit <= 0 || end > total {
		end = total
	}
	return posts[offset:end], total, nil
}

func sortOldestFirst(posts []domain.Post) {
	sort.Slice(posts, func(i, j int) bool {
		if !posts[i].CreatedAt.Equal(posts[j].CreatedAt) {
			return posts[i].CreatedAt.Before(posts[j].CreatedAt)
		}
		return posts[i].ID < posts[j].ID
	})
}
