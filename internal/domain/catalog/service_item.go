package catalog

// ServiceItem is a bookable salon service. The catalog is static.
type ServiceItem struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Price       int    `json:"price"`
	DurationMin int    `json:"durationMin"`
	Image       string `json:"image"`
}

var items = []ServiceItem{
	{ID: "s1", Name: "Premium Saç Kesimi", Price: 500, DurationMin: 45, Image: "https://images.unsplash.com/photo-1621605815971-fbc98d665033?w=500&auto=format&fit=crop"},
	{ID: "s2", Name: "Sakal Tasarımı & Bakım", Price: 300, DurationMin: 30, Image: "https://images.unsplash.com/photo-1622286342621-4bd786c2447c?w=500&auto=format&fit=crop"},
	{ID: "s3", Name: "Cilt Bakımı & Maske", Price: 400, DurationMin: 40, Image: "https://images.unsplash.com/photo-1616394584738-fc6e612e71b9?w=500&auto=format&fit=crop"},
	{ID: "s4", Name: "TYRANDEVU Özel Paket", Price: 1000, DurationMin: 90, Image: "https://images.unsplash.com/photo-1503951914875-452162b7f300?w=500&auto=format&fit=crop"},
}

// All returns a copy of the catalog in display order.
func All() []ServiceItem {
	return append([]ServiceItem(nil), items...)
}

func Find(id string) (ServiceItem, bool) {
	for _, it := range items {
		if it.ID == id {
			return it, true
		}
	}
	return ServiceItem{}, false
}
