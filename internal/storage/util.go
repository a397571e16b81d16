package storage

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"
)

// rowScanner is satisfied by *sql.Row and *sql.Rows
type rowScanner interface {
	Scan(dest ...any) error
}

const launchColumns = `id, name, details, upcoming, success, date_utc, date_unix, rocket_id, flight_number, cores, links, updated_at`

const rocketColumns = `id, name, description, active, cost_per_launch, success_rate_pct, flickr_images, wikipedia, updated_at`

const companyColumns = `name, founder, founded, employees, ceo, valuation, headquarters, links, summary, updated_at`

// orderClause whitelists the local sort columns
func orderClause(order LaunchOrder) (string, error) {
	var column string
	switch order.Field {
	case "date_utc", "":
		column = "date_utc"
	case "name":
		column = "name"
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidOrder, order.Field)
	}
	direction := "ASC"
	if order.Descending {
		direction = "DESC"
	}
	return fmt.Sprintf("ORDER BY %s %s, id ASC", column, direction), nil
}

// pageOffset converts a 1-based page into an OFFSET
func pageOffset(page, pageSize int) (int, error) {
	if page < 1 || pageSize < 1 {
		return 0, fmt.Errorf("%w: page=%d pageSize=%d", ErrInvalidPage, page, pageSize)
	}
	return (page - 1) * pageSize, nil
}

func encodeJSON(v any) (string, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func scanLaunch(row rowScanner) (*Launch, error) {
	var l Launch
	var details sql.NullString
	var success sql.NullBool
	var cores, links string
	var updatedAt int64
	err := row.Scan(
		&l.ID, &l.Name, &details, &l.Upcoming, &success, &l.DateUTC, &l.DateUnix,
		&l.RocketID, &l.FlightNumber, &cores, &links, &updatedAt,
	)
	if err != nil {
		return nil, err
	}
	if details.Valid {
		l.Details = &details.String
	}
	if success.Valid {
		l.Success = &success.Bool
	}
	if err := json.Unmarshal([]byte(cores), &l.Cores); err != nil {
		return nil, fmt.Errorf("decoding cores of launch %s: %w", l.ID, err)
	}
	if err := json.Unmarshal([]byte(links), &l.Links); err != nil {
		return nil, fmt.Errorf("decoding links of launch %s: %w", l.ID, err)
	}
	l.UpdatedAt = time.Unix(0, updatedAt).UTC()
	return &l, nil
}

func scanLaunches(rows *sql.Rows) ([]Launch, error) {
	var launches []Launch
	for rows.Next() {
		l, err := scanLaunch(rows)
		if err != nil {
			return nil, err
		}
		launches = append(launches, *l)
	}
	return launches, rows.Err()
}

func scanRocket(row rowScanner) (*Rocket, error) {
	var r Rocket
	var cost sql.NullInt64
	var images string
	var updatedAt int64
	err := row.Scan(
		&r.ID, &r.Name, &r.Description, &r.Active, &cost, &r.SuccessRatePct, &images, &r.Wikipedia, &updatedAt,
	)
	if err != nil {
		return nil, err
	}
	if cost.Valid {
		r.CostPerLaunch = &cost.Int64
	}
	if err := json.Unmarshal([]byte(images), &r.FlickrImages); err != nil {
		return nil, fmt.Errorf("decoding images of rocket %s: %w", r.ID, err)
	}
	r.UpdatedAt = time.Unix(0, updatedAt).UTC()
	return &r, nil
}

func scanRockets(rows *sql.Rows) ([]Rocket, error) {
	var rockets []Rocket
	for rows.Next() {
		r, err := scanRocket(rows)
		if err != nil {
			return nil, err
		}
		rockets = append(rockets, *r)
	}
	return rockets, rows.Err()
}

func scanCompany(row rowScanner) (*Company, error) {
	var c Company
	var hq, links string
	var updatedAt int64
	err := row.Scan(
		&c.Name, &c.Founder, &c.Founded, &c.Employees, &c.CEO, &c.Valuation, &hq, &links, &c.Summary, &updatedAt,
	)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(hq), &c.Headquarters); err != nil {
		return nil, fmt.Errorf("decoding headquarters: %w", err)
	}
	if err := json.Unmarshal([]byte(links), &c.Links); err != nil {
		return nil, fmt.Errorf("decoding company links: %w", err)
	}
	c.UpdatedAt = time.Unix(0, updatedAt).UTC()
	return &c, nil
}

// launchArgs returns the insert arguments in launchColumns order
func launchArgs(l Launch, now time.Time) ([]any, error) {
	cores := l.Cores
	if cores == nil {
		cores = []LaunchCore{}
	}
	coresJSON, err := encodeJSON(cores)
	if err != nil {
		return nil, fmt.Errorf("encoding cores of launch %s: %w", l.ID, err)
	}
	linksJSON, err := encodeJSON(l.Links)
	if err != nil {
		return nil, fmt.Errorf("encoding links of launch %s: %w", l.ID, err)
	}
	return []any{
		l.ID, l.Name, l.Details, l.Upcoming, l.Success, l.DateUTC, l.DateUnix,
		l.RocketID, l.FlightNumber, coresJSON, linksJSON, now.UnixNano(),
	}, nil
}

// rocketArgs returns the insert arguments in rocketColumns order
func rocketArgs(r Rocket, now time.Time) ([]any, error) {
	images := r.FlickrImages
	if images == nil {
		images = []string{}
	}
	imagesJSON, err := encodeJSON(images)
	if err != nil {
		return nil, fmt.Errorf("encoding images of rocket %s: %w", r.ID, err)
	}
	return []any{
		r.ID, r.Name, r.Description, r.Active, r.CostPerLaunch, r.SuccessRatePct, imagesJSON, r.Wikipedia, now.UnixNano(),
	}, nil
}

// companyArgs returns the insert arguments in companyColumns order
func companyArgs(c *Company, now time.Time) ([]any, error) {
	hq, err := encodeJSON(c.Headquarters)
	if err != nil {
		return nil, fmt.Errorf("encoding headquarters: %w", err)
	}
	links, err := encodeJSON(c.Links)
	if err != nil {
		return nil, fmt.Errorf("encoding company links: %w", err)
	}
	return []any{
		c.Name, c.Founder, c.Founded, c.Employees, c.CEO, c.Valuation, hq, links, c.Summary, now.UnixNano(),
	}, nil
}
