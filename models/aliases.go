package models

// Field keys for every value a template can receive. Record and metric keys
// mirror the json tags of PropertyRecord and ExecutiveMetrics.
const (
	FieldSourceURL    = "source_url"
	FieldTitle        = "title"
	FieldSiteName     = "site_name"
	FieldStreet       = "street"
	FieldCity         = "city"
	FieldState        = "state"
	FieldZipCode      = "zip_code"
	FieldPrice        = "price"
	FieldBedrooms     = "bedrooms"
	FieldBathrooms    = "bathrooms"
	FieldLivingArea   = "living_area_sqft"
	FieldLotSize      = "lot_size_sqft"
	FieldYearBuilt    = "year_built"
	FieldPropertyType = "property_type"
	FieldBrokerName   = "broker_name"
	FieldPhotoURL     = "photo_url"
	FieldIdentifier   = "identifier"
	FieldRegion       = "region"

	FieldMonthlyRent  = "monthly_rent_proxy"
	FieldAnnualRent   = "annual_rent_proxy"
	FieldEGI          = "effective_gross_income"
	FieldNOI          = "estimated_noi"
	FieldCapRate      = "estimated_cap_rate"
	FieldPricePerSqft = "price_per_sqft"
	FieldGRM          = "gross_rent_multiplier"
	FieldCashflow     = "annual_cashflow_proxy"

	FieldVerdict = "verdict"
)

// FieldAliases maps each field key to the labels a spreadsheet template may
// use for it, in English, Spanish, French, Portuguese, Italian and German.
// Labels are matched case-insensitively after trimming punctuation.
var FieldAliases = map[string][]string{
	FieldIdentifier:   {"mls", "mls number", "mls #", "listing id", "numero mls", "numéro mls", "número mls", "codice annuncio", "objektnummer"},
	FieldRegion:       {"state", "region", "province", "estado", "région", "regione", "bundesland"},
	FieldSourceURL:    {"url", "source", "listing url", "link", "enlace", "lien", "fonte", "collegamento", "quelle"},
	FieldTitle:        {"title", "listing title", "título", "titre", "titolo", "titel"},
	FieldSiteName:     {"site", "site name", "portal", "sitio", "portale", "webseite"},
	FieldStreet:       {"address", "street", "street address", "dirección", "adresse", "endereço", "indirizzo", "straße"},
	FieldCity:         {"city", "town", "ciudad", "ville", "cidade", "città", "stadt"},
	FieldState:        {"state code", "region code"},
	FieldZipCode:      {"zip", "zip code", "postal code", "código postal", "code postal", "cep", "cap", "postleitzahl", "plz"},
	FieldPrice:        {"price", "list price", "asking price", "precio", "prix", "preço", "prezzo", "preis", "kaufpreis"},
	FieldBedrooms:     {"bedrooms", "beds", "habitaciones", "dormitorios", "chambres", "quartos", "camere da letto", "schlafzimmer"},
	FieldBathrooms:    {"bathrooms", "baths", "baños", "salles de bain", "banheiros", "bagni", "badezimmer"},
	FieldLivingArea:   {"area sqft", "living area", "square feet", "sqft", "superficie", "surface", "área", "superficie abitabile", "wohnfläche"},
	FieldLotSize:      {"lot size", "lot", "terreno", "terrain", "lotto", "grundstück"},
	FieldYearBuilt:    {"year built", "built", "año de construcción", "année de construction", "ano de construção", "anno di costruzione", "baujahr"},
	FieldPropertyType: {"property type", "type", "tipo de propiedad", "type de bien", "tipo de imóvel", "tipologia", "objektart"},
	FieldBrokerName:   {"broker", "agent", "brokerage", "agente", "agence", "corretor", "agenzia", "makler"},
	FieldPhotoURL:     {"photo", "image", "foto", "imagem", "immagine", "bild"},

	FieldMonthlyRent:  {"monthly rent", "rent", "alquiler mensual", "loyer mensuel", "aluguel mensal", "affitto mensile", "monatsmiete"},
	FieldAnnualRent:   {"annual rent", "alquiler anual", "loyer annuel", "aluguel anual", "affitto annuo", "jahresmiete"},
	FieldEGI:          {"egi", "effective gross income", "ingreso bruto efectivo", "revenu brut effectif", "receita bruta efetiva", "reddito lordo effettivo", "effektiver bruttoertrag"},
	FieldNOI:          {"noi", "net operating income", "ingreso operativo neto", "revenu net d'exploitation", "receita operacional líquida", "reddito operativo netto", "nettobetriebsergebnis"},
	FieldCapRate:      {"cap rate", "capitalization rate", "tasa de capitalización", "taux de capitalisation", "taxa de capitalização", "tasso di capitalizzazione", "kapitalisierungsrate"},
	FieldPricePerSqft: {"price per sqft", "price/sqft", "$/sqft", "precio por pie cuadrado", "prix au pied carré", "preço por pé quadrado", "prezzo per piede quadrato", "preis pro quadratfuß"},
	FieldGRM:          {"grm", "gross rent multiplier", "multiplicador de renta bruta", "multiplicateur de loyer brut", "multiplicador de aluguel bruto", "moltiplicatore affitto lordo", "bruttomietmultiplikator"},
	FieldCashflow:     {"cash flow", "cashflow", "annual cash flow", "flujo de caja", "flux de trésorerie", "fluxo de caixa", "flusso di cassa", "cashflow jährlich"},

	FieldVerdict: {"verdict", "recommendation", "decision", "recomendación", "recommandation", "recomendação", "raccomandazione", "empfehlung"},
}
