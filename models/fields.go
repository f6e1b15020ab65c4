package models

// FieldValues flattens a record, its metrics and decision into the keys used
// by FieldAliases. Missing facts are omitted rather than written as zero.
func FieldValues(rec *PropertyRecord, m *ExecutiveMetrics, d *Decision) map[string]any {
	out := make(map[string]any)
	setStr := func(key, v string) {
		if v != "" {
			out[key] = v
		}
	}
	setNum := func(key string, v *float64) {
		if v != nil {
			out[key] = *v
		}
	}

	if rec != nil {
		setStr(FieldIdentifier, rec.Identifier)
		setStr(FieldRegion, rec.Region)
		setStr(FieldSourceURL, rec.SourceURL)
		setStr(FieldTitle, rec.Title)
		setStr(FieldSiteName, rec.SiteName)
		setStr(FieldStreet, rec.Street)
		setStr(FieldCity, rec.City)
		setStr(FieldState, rec.State)
		setStr(FieldZipCode, rec.ZipCode)
		setNum(FieldPrice, rec.Price)
		setNum(FieldBedrooms, rec.Bedrooms)
		setNum(FieldBathrooms, rec.Bathrooms)
		setNum(FieldLivingArea, rec.LivingArea)
		setNum(FieldLotSize, rec.LotSize)
		if rec.YearBuilt != nil {
			out[FieldYearBuilt] = *rec.YearBuilt
		}
		setStr(FieldPropertyType, rec.PropertyType)
		setStr(FieldBrokerName, rec.BrokerName)
		setStr(FieldPhotoURL, rec.PhotoURL)
	}

	if m != nil {
		setNum(FieldMonthlyRent, m.MonthlyRent)
		setNum(FieldAnnualRent, m.AnnualRent)
		setNum(FieldEGI, m.EffectiveGrossIncome)
		setNum(FieldNOI, m.NOI)
		setNum(FieldCapRate, m.CapRate)
		setNum(FieldPricePerSqft, m.PricePerSqft)
		setNum(FieldGRM, m.GrossRentMultiplier)
		setNum(FieldCashflow, m.AnnualCashflowProxy)
	}

	if d != nil {
		setStr(FieldVerdict, d.Verdict)
	}
	return out
}
