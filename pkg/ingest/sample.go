// pkg/ingest/sample.go
package ingest

import (
	"fmt"
	"math/rand"
	"time"

	"datasmith/pkg/dataset"
)

// SampleDataset generates a deterministic demo dataset for trying the tool
// without uploading anything. A fixed seed keeps runs reproducible; missing
// values and inconsistent casing are injected on purpose so the cleaning
// operations have something to do.
func SampleDataset(rows int) (*dataset.Dataset, error) {
	if rows <= 0 {
		rows = 100
	}
	rng := rand.New(rand.NewSource(42))

	regions := []string{"North", "south", " East", "West ", "north"}
	products := []string{"Widget", "Gadget", "Gizmo", "Doohickey"}
	start := time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC)

	ids := make([]interface{}, rows)
	dates := make([]interface{}, rows)
	region := make([]interface{}, rows)
	product := make([]interface{}, rows)
	units := make([]interface{}, rows)
	revenue := make([]interface{}, rows)
	returned := make([]interface{}, rows)

	for i := 0; i < rows; i++ {
		ids[i] = fmt.Sprintf("ORD-%05d", i+1)
		dates[i] = start.AddDate(0, 0, rng.Intn(365))
		region[i] = regions[rng.Intn(len(regions))]
		product[i] = products[rng.Intn(len(products))]

		u := float64(1 + rng.Intn(50))
		units[i] = u
		// Roughly 8% missing revenue, with an occasional outlier.
		switch {
		case rng.Float64() < 0.08:
			revenue[i] = nil
		case rng.Float64() < 0.02:
			revenue[i] = u * (500 + rng.Float64()*500)
		default:
			revenue[i] = u * (10 + rng.Float64()*40)
		}
		returned[i] = rng.Float64() < 0.05
	}

	return dataset.New("sample_sales",
		dataset.Column{Name: "order_id", Type: dataset.Text, Values: ids},
		dataset.Column{Name: "order_date", Type: dataset.Datetime, Values: dates},
		dataset.Column{Name: "region", Type: dataset.Categorical, Values: region},
		dataset.Column{Name: "product", Type: dataset.Categorical, Values: product},
		dataset.Column{Name: "units", Type: dataset.Numeric, Values: units},
		dataset.Column{Name: "revenue", Type: dataset.Numeric, Values: revenue},
		dataset.Column{Name: "returned", Type: dataset.Boolean, Values: returned},
	)
}
