package store

import (
	"context"
	"database/sql"
	stderrors "errors"

	"sjsage522/tokoworker/pkg/errors"
)

// Category levels of the marketplace tree.
const (
	LevelMain = 1
	LevelSub  = 2
	LevelLeaf = 3
)

// Category is one node of the category tree.
type Category struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	URL      string `json:"url,omitempty"`
	Level    int    `json:"level"`
	ParentID string `json:"parent_id,omitempty"`
}

// Lineage is a leaf category with its ancestors.
type Lineage struct {
	L1 Category
	L2 Category
	L3 Category
}

const selectCategory = `SELECT id, name, COALESCE(url, ''), level, COALESCE(parent_id::text, '') FROM categories`

func scanCategories(rows *sql.Rows) ([]Category, error) {
	defer rows.Close()
	var out []Category
	for rows.Next() {
		var c Category
		if err := rows.Scan(&c.ID, &c.Name, &c.URL, &c.Level, &c.ParentID); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// GetCategories lists the categories of one level ordered by name. An empty
// parentID lists the whole level.
func (s *Store) GetCategories(ctx context.Context, level int, parentID string) ([]Category, error) {
	var (
		rows *sql.Rows
		err  error
	)
	if parentID == "" {
		rows, err = s.db.QueryContext(ctx,
			selectCategory+` WHERE level = $1 AND ecommerce = $2 ORDER BY name`, level, Ecommerce)
	} else {
		rows, err = s.db.QueryContext(ctx,
			selectCategory+` WHERE level = $1 AND parent_id = $2 AND ecommerce = $3 ORDER BY name`, level, parentID, Ecommerce)
	}
	if err != nil {
		return nil, errors.NewStore("categories", "failed to list categories", err)
	}
	cats, err := scanCategories(rows)
	if err != nil {
		return nil, errors.NewStore("categories", "failed to read categories", err)
	}
	return cats, nil
}

// GetCategory loads one category by id.
func (s *Store) GetCategory(ctx context.Context, id string) (Category, error) {
	var c Category
	err := s.db.QueryRowContext(ctx, selectCategory+` WHERE id = $1`, id).
		Scan(&c.ID, &c.Name, &c.URL, &c.Level, &c.ParentID)
	if stderrors.Is(err, sql.ErrNoRows) {
		return Category{}, errors.NewStore("categories", "category "+id, ErrNotFound)
	}
	if err != nil {
		return Category{}, errors.NewStore("categories", "failed to load category "+id, err)
	}
	return c, nil
}

// CategoryLineage loads a leaf category with its parent and grandparent.
func (s *Store) CategoryLineage(ctx context.Context, leafID string) (Lineage, error) {
	l := Lineage{
		L1: Category{Level: LevelMain},
		L2: Category{Level: LevelSub},
		L3: Category{Level: LevelLeaf},
	}
	err := s.db.QueryRowContext(ctx, `SELECT
			c.id, c.name, COALESCE(c.url, ''),
			c2.id, c2.name, COALESCE(c2.url, ''),
			c3.id, c3.name, COALESCE(c3.url, '')
		FROM categories c
		JOIN categories c2 ON c.parent_id = c2.id
		JOIN categories c3 ON c2.parent_id = c3.id
		WHERE c.id = $1`, leafID).
		Scan(&l.L3.ID, &l.L3.Name, &l.L3.URL, &l.L2.ID, &l.L2.Name, &l.L2.URL, &l.L1.ID, &l.L1.Name, &l.L1.URL)
	if stderrors.Is(err, sql.ErrNoRows) {
		return Lineage{}, errors.NewStore("categories", "lineage of "+leafID, ErrNotFound)
	}
	if err != nil {
		return Lineage{}, errors.NewStore("categories", "failed to load lineage of "+leafID, err)
	}
	l.L3.ParentID = l.L2.ID
	l.L2.ParentID = l.L1.ID
	return l, nil
}

// CategoryLeaves expands a category of any level into its level-3 leaves.
func (s *Store) CategoryLeaves(ctx context.Context, id string) ([]Category, error) {
	c, err := s.GetCategory(ctx, id)
	if err != nil {
		return nil, err
	}

	switch c.Level {
	case LevelLeaf:
		return []Category{c}, nil
	case LevelSub:
		return s.GetCategories(ctx, LevelLeaf, c.ID)
	default:
		subs, err := s.GetCategories(ctx, LevelSub, c.ID)
		if err != nil {
			return nil, err
		}
		var leaves []Category
		for _, sub := range subs {
			children, err := s.GetCategories(ctx, LevelLeaf, sub.ID)
			if err != nil {
				return nil, err
			}
			leaves = append(leaves, children...)
		}
		return leaves, nil
	}
}

func (s *Store) findCategory(ctx context.Context, name string, level int, parentID string) (string, error) {
	var (
		id  string
		err error
	)
	if parentID == "" {
		err = s.db.QueryRowContext(ctx,
			`SELECT id FROM categories WHERE ecommerce = $1 AND name = $2 AND level = $3 AND parent_id IS NULL LIMIT 1`,
			Ecommerce, name, level).Scan(&id)
	} else {
		err = s.db.QueryRowContext(ctx,
			`SELECT id FROM categories WHERE ecommerce = $1 AND name = $2 AND level = $3 AND parent_id = $4 LIMIT 1`,
			Ecommerce, name, level, parentID).Scan(&id)
	}
	if stderrors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	return id, err
}

// GetOrCreateCategory returns the id of the named category under parentID,
// inserting it when missing. created reports whether this call inserted it.
func (s *Store) GetOrCreateCategory(ctx context.Context, name, url string, level int, parentID string) (id string, created bool, err error) {
	if name == "" {
		return "", false, errors.NewValidation("categories", "category name is empty")
	}

	id, err = s.findCategory(ctx, name, level, parentID)
	if err != nil {
		return "", false, errors.NewStore("categories", "failed to look up "+name, err)
	}
	if id != "" {
		return id, false, nil
	}

	newID := s.newID()
	_, err = s.db.ExecContext(ctx, `INSERT INTO categories (id, ecommerce, name, url, level, parent_id)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (ecommerce, name, level, parent_id) DO NOTHING`,
		newID, Ecommerce, name, nullString(url), level, nullString(parentID))
	if err != nil {
		return "", false, errors.NewStore("categories", "failed to insert "+name, err)
	}

	id, err = s.findCategory(ctx, name, level, parentID)
	if err != nil {
		return "", false, errors.NewStore("categories", "failed to look up "+name, err)
	}
	if id == "" {
		return "", false, errors.NewStore("categories", "category "+name, ErrNotFound)
	}
	return id, id == newID, nil
}

// SetCategoryEmbedding stores the name embedding of a category.
func (s *Store) SetCategoryEmbedding(ctx context.Context, id string, embedding []float32) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE categories SET embedding = $1::vector, updated_at = NOW() WHERE id = $2`,
		VectorLiteral(embedding), id)
	if err != nil {
		return errors.NewStore("categories", "failed to store embedding of "+id, err)
	}
	return nil
}
