package product

import (
	"context"
	"database/sql"
	"errors"
	"log"
	"sync"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"
)

// undefinedColumn is the SQLSTATE Postgres returns for a missing column.
const undefinedColumn = "42703"

type PostgresRepository struct {
	db *sql.DB

	mu        sync.Mutex
	inspected bool
	caps      Capabilities
}

const (
	capabilitiesQuery = `
		SELECT EXISTS (
			SELECT 1 FROM information_schema.columns
			WHERE table_name = 'products' AND column_name = 'images'
		)
	`
	listProductsQuery = `
		SELECT id, name, description, category, price, discount_price, image, images, stock
		FROM products
		ORDER BY id
	`
	listProductsSingleImageQuery = `
		SELECT id, name, description, category, price, discount_price, image, stock
		FROM products
		ORDER BY id
	`
	getProductByIDQuery = `
		SELECT id, name, description, category, price, discount_price, image, images, stock
		FROM products
		WHERE id = $1
	`
	getProductByIDSingleImageQuery = `
		SELECT id, name, description, category, price, discount_price, image, stock
		FROM products
		WHERE id = $1
	`
	insertProductQuery = `
		INSERT INTO products (name, description, category, price, discount_price, image, images, stock)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
		RETURNING id
	`
	insertProductSingleImageQuery = `
		INSERT INTO products (name, description, category, price, discount_price, image, stock)
		VALUES ($1,$2,$3,$4,$5,$6,$7)
		RETURNING id
	`
	updateProductQuery = `
		UPDATE products
		SET name = $1,
			description = $2,
			category = $3,
			price = $4,
			discount_price = $5,
			image = $6,
			images = $7,
			stock = $8
		WHERE id = $9
	`
	updateProductSingleImageQuery = `
		UPDATE products
		SET name = $1,
			description = $2,
			category = $3,
			price = $4,
			discount_price = $5,
			image = $6,
			stock = $7
		WHERE id = $8
	`
	setStockQuery      = `UPDATE products SET stock = $1 WHERE id = $2`
	deleteProductQuery = `DELETE FROM products WHERE id = $1`
)

func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Capabilities inspects information_schema once. A failed lookup assumes the
// full schema; a write that then hits an undefined column corrects it.
func (r *PostgresRepository) Capabilities(ctx context.Context) Capabilities {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.inspected {
		return r.caps
	}
	var images bool
	if err := r.db.QueryRowContext(ctx, capabilitiesQuery).Scan(&images); err != nil {
		log.Printf("[catalog] schema lookup failed, assuming image gallery support: %v", err)
		return Capabilities{Images: true}
	}
	r.caps = Capabilities{Images: images}
	r.inspected = true
	if !images {
		log.Printf("[catalog] products.images column absent, using single-image writes")
	}
	return r.caps
}

func (r *PostgresRepository) dropImages() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.caps = Capabilities{Images: false}
	r.inspected = true
}

func isUndefinedColumn(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == undefinedColumn
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == undefinedColumn
	}
	return false
}

func (r *PostgresRepository) List(ctx context.Context) ([]Product, error) {
	if r.Capabilities(ctx).Images {
		out, err := r.list(ctx, listProductsQuery, true)
		if err == nil || !isUndefinedColumn(err) {
			return out, err
		}
		r.dropImages()
	}
	return r.list(ctx, listProductsSingleImageQuery, false)
}

func (r *PostgresRepository) list(ctx context.Context, query string, withImages bool) ([]Product, error) {
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]Product, 0)
	for rows.Next() {
		p, err := scanProduct(rows, withImages)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (r *PostgresRepository) GetByID(ctx context.Context, id int) (Product, error) {
	if r.Capabilities(ctx).Images {
		p, err := r.get(ctx, getProductByIDQuery, id, true)
		if err == nil || !isUndefinedColumn(err) {
			return p, err
		}
		r.dropImages()
	}
	return r.get(ctx, getProductByIDSingleImageQuery, id, false)
}

func (r *PostgresRepository) get(ctx context.Context, query string, id int, withImages bool) (Product, error) {
	p, err := scanProduct(r.db.QueryRowContext(ctx, query, id), withImages)
	if errors.Is(err, sql.ErrNoRows) {
		return Product{}, ErrNotFound
	}
	return p, err
}

func (r *PostgresRepository) Create(ctx context.Context, p Product) (WriteResult, error) {
	p.Normalize()
	var id int
	if r.Capabilities(ctx).Images {
		err := r.db.QueryRowContext(ctx, insertProductQuery,
			p.Name, p.Description, p.Category, p.Price, nullDecimal(p.DiscountPrice), p.Image, pq.Array(p.Images), p.Stock,
		).Scan(&id)
		if err == nil {
			p.ID = id
			return WriteResult{Product: p}, nil
		}
		if !isUndefinedColumn(err) {
			return WriteResult{}, err
		}
		log.Printf("[catalog] create hit missing images column, retrying with a single image: %v", err)
		r.dropImages()
	}

	if err := r.db.QueryRowContext(ctx, insertProductSingleImageQuery,
		p.Name, p.Description, p.Category, p.Price, nullDecimal(p.DiscountPrice), p.Image, p.Stock,
	).Scan(&id); err != nil {
		return WriteResult{}, err
	}
	p.ID = id
	p.Images = []string{p.Image}
	return WriteResult{Product: p, Degraded: true}, nil
}

func (r *PostgresRepository) Update(ctx context.Context, id int, p Product) (WriteResult, error) {
	p.Normalize()
	p.ID = id
	if r.Capabilities(ctx).Images {
		result, err := r.db.ExecContext(ctx, updateProductQuery,
			p.Name, p.Description, p.Category, p.Price, nullDecimal(p.DiscountPrice), p.Image, pq.Array(p.Images), p.Stock, id,
		)
		if err == nil {
			if err := expectAffected(result); err != nil {
				return WriteResult{}, err
			}
			return WriteResult{Product: p}, nil
		}
		if !isUndefinedColumn(err) {
			return WriteResult{}, err
		}
		log.Printf("[catalog] update hit missing images column, retrying with a single image: %v", err)
		r.dropImages()
	}

	result, err := r.db.ExecContext(ctx, updateProductSingleImageQuery,
		p.Name, p.Description, p.Category, p.Price, nullDecimal(p.DiscountPrice), p.Image, p.Stock, id,
	)
	if err != nil {
		return WriteResult{}, err
	}
	if err := expectAffected(result); err != nil {
		return WriteResult{}, err
	}
	p.Images = []string{p.Image}
	return WriteResult{Product: p, Degraded: true}, nil
}

func (r *PostgresRepository) SetStock(ctx context.Context, id, stock int) (Product, error) {
	result, err := r.db.ExecContext(ctx, setStockQuery, stock, id)
	if err != nil {
		return Product{}, err
	}
	if err := expectAffected(result); err != nil {
		return Product{}, err
	}
	return r.GetByID(ctx, id)
}

func (r *PostgresRepository) Delete(ctx context.Context, id int) error {
	result, err := r.db.ExecContext(ctx, deleteProductQuery, id)
	if err != nil {
		return err
	}
	return expectAffected(result)
}

func expectAffected(result sql.Result) error {
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

func nullDecimal(d *decimal.Decimal) decimal.NullDecimal {
	if d == nil {
		return decimal.NullDecimal{}
	}
	return decimal.NullDecimal{Decimal: *d, Valid: true}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanProduct(scanner rowScanner, withImages bool) (Product, error) {
	p := Product{}
	var (
		description sql.NullString
		category    sql.NullString
		discount    decimal.NullDecimal
		image       sql.NullString
		images      []string
	)
	dest := []any{&p.ID, &p.Name, &description, &category, &p.Price, &discount, &image}
	if withImages {
		dest = append(dest, pq.Array(&images))
	}
	dest = append(dest, &p.Stock)

	if err := scanner.Scan(dest...); err != nil {
		return Product{}, err
	}

	p.Description = description.String
	p.Category = category.String
	p.Image = image.String
	p.Images = images
	if discount.Valid {
		d := discount.Decimal
		p.DiscountPrice = &d
	}
	p.Normalize()
	return p, nil
}
