// aqi-baseline evaluates the naive persistence baseline y(t+h) = y(t)
// straight from the observation store. Trained models have to beat these
// numbers to be worth serving; run this after a training cycle and compare
// against the RMSE reported by /api/models.
package main

import (
	"database/sql"
	"flag"
	"fmt"
	"math"
	"os"
	"time"

	_ "github.com/lib/pq"
	"gonum.org/v1/gonum/stat"

	"github.com/atmowatch/atmowatch/internal/schema"
)

func main() {
	dsn := flag.String("db", os.Getenv("ATMOWATCH_DB_DSN"), "Postgres/TimescaleDB connection string (defaults to ATMOWATCH_DB_DSN)")
	city := flag.String("city", "", "City substring filter (empty evaluates all stations)")
	pollutant := flag.String("pollutant", "PM25", "Pollutant to evaluate")
	horizon := flag.Int("horizon", 24, "Forecast horizon in hours")
	days := flag.Int("days", 30, "Look-back window in days")
	flag.Parse()

	if *dsn == "" {
		fmt.Println("no database connection string; pass -db or set ATMOWATCH_DB_DSN")
		os.Exit(1)
	}

	db, err := sql.Open("postgres", *dsn)
	if err != nil {
		fmt.Printf("opening database: %v\n", err)
		os.Exit(1)
	}
	defer db.Close()

	p := schema.CanonicalParameter(*pollutant)
	since := time.Now().UTC().AddDate(0, 0, -*days)

	rows, err := db.Query(`
		SELECT location_id, datetime_utc, value
		FROM air_quality_data
		WHERE parameter_name = $1 AND datetime_utc >= $2 AND ($3 = '' OR city ILIKE '%' || $3 || '%')
		ORDER BY location_id, datetime_utc`,
		p, since, *city)
	if err != nil {
		fmt.Printf("querying observations: %v\n", err)
		os.Exit(1)
	}
	defer rows.Close()

	// Hour-truncated series per station; exact-hour pairing for the shift.
	series := make(map[string]map[int64]float64)
	for rows.Next() {
		var (
			station string
			t       time.Time
			v       float64
		)
		if err := rows.Scan(&station, &t, &v); err != nil {
			fmt.Printf("scanning row: %v\n", err)
			os.Exit(1)
		}
		hours := t.UTC().Truncate(time.Hour).Unix() / 3600
		if series[station] == nil {
			series[station] = make(map[int64]float64)
		}
		series[station][hours] = v
	}
	if err := rows.Err(); err != nil {
		fmt.Printf("reading rows: %v\n", err)
		os.Exit(1)
	}

	var absErr, sqErr []float64
	for _, byHour := range series {
		for h, now := range byHour {
			future, ok := byHour[h+int64(*horizon)]
			if !ok {
				continue
			}
			d := future - now
			absErr = append(absErr, math.Abs(d))
			sqErr = append(sqErr, d*d)
		}
	}

	if len(absErr) == 0 {
		fmt.Printf("no paired observations for %s at %dh in the past %dd\n", p, *horizon, *days)
		os.Exit(1)
	}

	rmse := math.Sqrt(stat.Mean(sqErr, nil))
	mae := stat.Mean(absErr, nil)
	fmt.Printf("persistence baseline  pollutant=%s horizon=%dh pairs=%d stations=%d\n",
		p, *horizon, len(absErr), len(series))
	fmt.Printf("  RMSE %.3f\n  MAE  %.3f\n", rmse, mae)
}
