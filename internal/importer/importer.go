package importer

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	"orderup/internal/domain"
)

type RestaurantLookup interface {
	GetByKey(ctx context.Context, key string) (*domain.Restaurant, error)
}

type MenuWriter interface {
	UpsertCategory(ctx context.Context, restaurantID string, c domain.MenuCategory) (*domain.MenuCategory, error)
	UpsertItem(ctx context.Context, categoryID string, item domain.MenuItem) (*domain.MenuItem, error)
}

// CSVImporter reads menu CSV exports and inserts/updates menu items. Each row
// is one item; categories are created in order of first appearance.
type CSVImporter struct {
	reader      *csv.Reader
	restaurants RestaurantLookup
	menus       MenuWriter

	restaurantIDs map[string]string
	categoryIDs   map[string]string
	positions     map[string]int
}

func NewCSVImporter(r io.Reader, restaurants RestaurantLookup, menus MenuWriter) *CSVImporter {
	csvr := csv.NewReader(r)
	csvr.FieldsPerRecord = -1 // rows may have trailing commas
	return &CSVImporter{
		reader:        csvr,
		restaurants:   restaurants,
		menus:         menus,
		restaurantIDs: make(map[string]string),
		categoryIDs:   make(map[string]string),
		positions:     make(map[string]int),
	}
}

type csvRow struct {
	Line          int
	RestaurantKey string
	CategoryKey   string
	CategoryName  string
	Key           string
	Name          string
	Desc          string
	Price         string
	Currency      string
	Image         string
	Popular       bool
	Vegetarian    bool
}

var requiredHeaders = []string{"restaurant.key", "category.key", "key", "name", "price"}

// Run parses CSV rows and upserts one menu item per row.
func (i *CSVImporter) Run(ctx context.Context) (int, error) {
	headers, err := i.reader.Read()
	if err != nil {
		return 0, fmt.Errorf("read headers: %w", err)
	}
	index := headerIndex(headers)
	for _, h := range requiredHeaders {
		if _, ok := index[h]; !ok {
			return 0, fmt.Errorf("missing column %q", h)
		}
	}

	imported := 0
	line := 1
	for {
		record, err := i.reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return imported, fmt.Errorf("read row: %w", err)
		}
		line++

		row := parseRow(record, index)
		if row == nil {
			continue
		}
		row.Line = line
		if err := i.save(ctx, row); err != nil {
			return imported, err
		}
		imported++
	}
	return imported, nil
}

// RestaurantIDs lists the restaurants touched by Run.
func (i *CSVImporter) RestaurantIDs() []string {
	ids := make([]string, 0, len(i.restaurantIDs))
	for _, id := range i.restaurantIDs {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

func (i *CSVImporter) save(ctx context.Context, row *csvRow) error {
	if row.RestaurantKey == "" || row.CategoryKey == "" || row.Key == "" || row.Name == "" || row.Price == "" {
		return fmt.Errorf("line %d: invalid item row (missing required fields) for key %q", row.Line, row.Key)
	}
	price, err := domain.MoneyFromMajor(row.Price)
	if err != nil || price <= 0 {
		return fmt.Errorf("line %d: invalid price %q for key %q", row.Line, row.Price, row.Key)
	}

	restaurantID, err := i.restaurantID(ctx, row.RestaurantKey)
	if err != nil {
		return fmt.Errorf("line %d: restaurant %q: %w", row.Line, row.RestaurantKey, err)
	}
	categoryID, err := i.categoryID(ctx, restaurantID, row)
	if err != nil {
		return fmt.Errorf("line %d: category %q: %w", row.Line, row.CategoryKey, err)
	}

	item := domain.MenuItem{
		RestaurantID: restaurantID,
		Key:          row.Key,
		Name:         row.Name,
		Description:  row.Desc,
		Price:        price,
		Currency:     strings.ToUpper(row.Currency),
		Image:        row.Image,
		Category:     categoryName(row),
		IsPopular:    row.Popular,
		IsVegetarian: row.Vegetarian,
	}
	if _, err := i.menus.UpsertItem(ctx, categoryID, item); err != nil {
		return fmt.Errorf("upsert item %q: %w", row.Key, err)
	}
	return nil
}

func (i *CSVImporter) restaurantID(ctx context.Context, key string) (string, error) {
	if id, ok := i.restaurantIDs[key]; ok {
		return id, nil
	}
	r, err := i.restaurants.GetByKey(ctx, key)
	if err != nil {
		return "", err
	}
	i.restaurantIDs[key] = r.ID
	return r.ID, nil
}

func (i *CSVImporter) categoryID(ctx context.Context, restaurantID string, row *csvRow) (string, error) {
	k := restaurantID + "/" + row.CategoryKey
	if id, ok := i.categoryIDs[k]; ok {
		return id, nil
	}
	pos := i.positions[restaurantID]
	c, err := i.menus.UpsertCategory(ctx, restaurantID, domain.MenuCategory{
		Key:      row.CategoryKey,
		Name:     categoryName(row),
		Position: pos,
	})
	if err != nil {
		return "", err
	}
	i.positions[restaurantID] = pos + 1
	i.categoryIDs[k] = c.ID
	return c.ID, nil
}

// categoryName falls back to a title-cased key, e.g. "hot-drinks" -> "Hot Drinks".
func categoryName(row *csvRow) string {
	if row.CategoryName != "" {
		return row.CategoryName
	}
	parts := strings.FieldsFunc(row.CategoryKey, func(r rune) bool { return r == '-' || r == '_' })
	for i, p := range parts {
		parts[i] = strings.ToUpper(p[:1]) + p[1:]
	}
	return strings.Join(parts, " ")
}

func headerIndex(headers []string) map[string]int {
	idx := make(map[string]int, len(headers))
	for i, h := range headers {
		idx[strings.TrimSpace(strings.TrimPrefix(h, "\uFEFF"))] = i
	}
	return idx
}

func parseRow(record []string, index map[string]int) *csvRow {
	row := &csvRow{
		RestaurantKey: pick(record, index, "restaurant.key"),
		CategoryKey:   pick(record, index, "category.key"),
		CategoryName:  pick(record, index, "category.name"),
		Key:           pick(record, index, "key"),
		Name:          pick(record, index, "name"),
		Desc:          pick(record, index, "description"),
		Price:         pick(record, index, "price"),
		Currency:      pick(record, index, "currency"),
		Image:         pick(record, index, "image"),
		Popular:       flag(pick(record, index, "isPopular")),
		Vegetarian:    flag(pick(record, index, "isVegetarian")),
	}
	if row.RestaurantKey == "" && row.Key == "" && row.Name == "" {
		return nil
	}
	return row
}

func flag(s string) bool {
	switch strings.ToLower(s) {
	case "y", "yes":
		return true
	}
	b, _ := strconv.ParseBool(s)
	return b
}

func pick(record []string, index map[string]int, key string) string {
	pos, ok := index[key]
	if !ok || pos >= len(record) {
		return ""
	}
	return strings.TrimSpace(record[pos])
}
