package webhook

// categoryCodes maps the provider's merchant category names to their
// four-digit codes. Payloads that omit category_code fall back to this table.
var categoryCodes = map[string]string{
	"airlines_air_carriers":           "4511",
	"automated_fuel_dispensers":       "5542",
	"bakeries":                        "5462",
	"bars_taverns_lounges":            "5813",
	"betting_casino_gambling":         "7995",
	"book_stores":                     "5942",
	"car_rental_agencies":             "7512",
	"commuter_transport_and_ferries":  "4111",
	"computer_programming_services":   "7372",
	"computer_software_stores":        "5734",
	"cosmetic_stores":                 "5977",
	"digital_goods_media":             "5815",
	"drug_stores_and_pharmacies":      "5912",
	"eating_places_restaurants":       "5812",
	"fast_food_restaurants":           "5814",
	"grocery_stores_supermarkets":     "5411",
	"lodging_hotels_motels_resorts":   "7011",
	"mens_and_womens_clothing_stores": "5691",
	"miscellaneous_food_stores":       "5499",
	"parking_lots_garages":            "7523",
	"passenger_railways":              "4112",
	"service_stations":                "5541",
	"taxicabs_limousines":             "4121",
	"telecommunication_services":      "4814",
	"transportation_services":         "4789",
}

var categoryNames = func() map[string]string {
	names := make(map[string]string, len(categoryCodes))
	for name, code := range categoryCodes {
		names[code] = name
	}
	return names
}()

// CategoryCode resolves a provider category name to its code.
func CategoryCode(name string) (string, bool) {
	code, ok := categoryCodes[name]
	return code, ok
}

// CategoryName returns the provider category name for code, or "other".
func CategoryName(code string) string {
	if name, ok := categoryNames[code]; ok {
		return name
	}
	return "other"
}
