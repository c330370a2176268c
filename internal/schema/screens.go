package schema

// BuiltinScreens returns the screen configs for the charging-platform
// admin console. Column render hooks are presentational only.
func BuiltinScreens() []*Screen {
	return []*Screen{
		operatorsScreen(),
		stationsScreen(),
		chargingBaysScreen(),
		connectorsScreen(),
		ratesScreen(),
		rateBreakdownsScreen(),
		usersScreen(),
		accountRequestsScreen(),
	}
}

func yesNo(v any, _ Record) string {
	if b, ok := v.(bool); ok && b {
		return "Yes"
	}
	return "No"
}

func operatorsScreen() *Screen {
	return &Screen{
		Name:     "operators",
		Title:    "Operators",
		Resource: "Operators",
		Columns: []ColumnSchema{
			{Key: "name", Label: "Name"},
			{Key: "email", Label: "Email"},
			{Key: "phone", Label: "Phone"},
			{Key: "active", Label: "Active", Render: yesNo},
		},
		FormFields: []FieldSchema{
			{Name: "name", Label: "Name", Type: FieldText, Required: true, GridGroup: "main"},
			{Name: "email", Label: "Email", Type: FieldEmail, Required: true, GridGroup: "main"},
			{Name: "phone", Label: "Phone", Type: FieldText, GridGroup: "contact"},
			{Name: "address", Label: "Address", Type: FieldTextarea},
			{Name: "active", Label: "Active", Type: FieldCheckbox},
		},
		Rules: []Rule{
			{Expr: `record.name == nil || len(record.name) >= 3`, Field: "name", Message: "Name must be at least 3 characters"},
		},
		UpdateStrip: []string{"createdAt", "updatedAt"},
		Activatable: true,
	}
}

func stationsScreen() *Screen {
	return &Screen{
		Name:     "stations",
		Title:    "Charging Stations",
		Resource: "Stations",
		Columns: []ColumnSchema{
			{Key: "name", Label: "Station"},
			{Key: "operatorName", Label: "Operator"},
			{Key: "city", Label: "City"},
			{Key: "bayCount", Label: "Bays", Class: "numeric"},
			{Key: "active", Label: "Active", Render: yesNo},
		},
		FormFields: []FieldSchema{
			{Name: "name", Label: "Name", Type: FieldText, Required: true, GridGroup: "main"},
			{Name: "operatorId", Label: "Operator", Type: FieldSelect, Required: true, GridGroup: "main"},
			{Name: "address", Label: "Address", Type: FieldText, GridGroup: "location"},
			{Name: "city", Label: "City", Type: FieldText, GridGroup: "location"},
			{Name: "latitude", Label: "Latitude", Type: FieldNumber, GridGroup: "geo"},
			{Name: "longitude", Label: "Longitude", Type: FieldNumber, GridGroup: "geo"},
			{Name: "active", Label: "Active", Type: FieldCheckbox},
			{Name: "qrCode", Label: "QR Code", Type: FieldQRCode, ReadOnly: true},
		},
		Rules: []Rule{
			{Expr: `record.latitude == nil || (record.latitude >= -90 && record.latitude <= 90)`, Field: "latitude", Message: "Latitude must be between -90 and 90"},
			{Expr: `record.longitude == nil || (record.longitude >= -180 && record.longitude <= 180)`, Field: "longitude", Message: "Longitude must be between -180 and 180"},
		},
		DropdownSources: map[string]string{"operatorId": "Operators"},
		UpdateStrip:     []string{"bayCount", "operatorName", "qrCode", "createdAt", "updatedAt"},
		Activatable:     true,
		Child: &ChildConfig{
			Resource:    "ChargingBays",
			ParentField: "stationId",
			PageSize:    5,
			Columns: []ColumnSchema{
				{Key: "code", Label: "Bay"},
				{Key: "connectorTypeName", Label: "Connector"},
				{Key: "powerKw", Label: "Power (kW)", Class: "numeric"},
				{Key: "status", Label: "Status"},
			},
		},
	}
}

func chargingBaysScreen() *Screen {
	return &Screen{
		Name:     "charging-bays",
		Title:    "Charging Bays",
		Resource: "ChargingBays",
		Columns: []ColumnSchema{
			{Key: "code", Label: "Bay"},
			{Key: "stationName", Label: "Station"},
			{Key: "connectorTypeName", Label: "Connector"},
			{Key: "powerKw", Label: "Power (kW)", Class: "numeric"},
			{Key: "status", Label: "Status"},
		},
		FormFields: []FieldSchema{
			{Name: "code", Label: "Code", Type: FieldText, Required: true, GridGroup: "main"},
			{Name: "stationId", Label: "Station", Type: FieldSelect, Required: true, GridGroup: "main"},
			{Name: "connectorTypeId", Label: "Connector Type", Type: FieldSelect, Required: true, GridGroup: "tech"},
			{Name: "powerKw", Label: "Power (kW)", Type: FieldNumber, Required: true, GridGroup: "tech"},
			{Name: "rateId", Label: "Rate", Type: FieldSelect},
			{Name: "status", Label: "Status", Type: FieldSelect, Options: []SelectOption{
				{Value: "available", Label: "Available"},
				{Value: "occupied", Label: "Occupied"},
				{Value: "out_of_service", Label: "Out of service"},
			}},
		},
		Rules: []Rule{
			{Expr: `record.powerKw == nil || record.powerKw > 0`, Field: "powerKw", Message: "Power must be greater than zero"},
		},
		DropdownSources: map[string]string{
			"stationId":       "Stations",
			"connectorTypeId": "ConnectorTypes",
			"rateId":          "Rates",
		},
		UpdateStrip: []string{"stationName", "connectorTypeName", "createdAt", "updatedAt"},
	}
}

func connectorsScreen() *Screen {
	return &Screen{
		Name:     "connectors",
		Title:    "Connector Types",
		Resource: "ConnectorTypes",
		Columns: []ColumnSchema{
			{Key: "name", Label: "Name"},
			{Key: "standard", Label: "Standard"},
			{Key: "maxPowerKw", Label: "Max Power (kW)", Class: "numeric"},
		},
		FormFields: []FieldSchema{
			{Name: "name", Label: "Name", Type: FieldText, ReadOnly: true},
			{Name: "standard", Label: "Standard", Type: FieldText, ReadOnly: true},
			{Name: "maxPowerKw", Label: "Max Power (kW)", Type: FieldNumber, ReadOnly: true},
		},
		ReadOnly: true,
	}
}

func ratesScreen() *Screen {
	return &Screen{
		Name:     "rates",
		Title:    "Rates",
		Resource: "Rates",
		Columns: []ColumnSchema{
			{Key: "name", Label: "Name"},
			{Key: "operatorName", Label: "Operator"},
			{Key: "currency", Label: "Currency"},
			{Key: "pricePerKwh", Label: "Price/kWh", Class: "numeric"},
		},
		FormFields: []FieldSchema{
			{Name: "name", Label: "Name", Type: FieldText, Required: true, GridGroup: "main"},
			{Name: "operatorId", Label: "Operator", Type: FieldSelect, Required: true, GridGroup: "main"},
			{Name: "currency", Label: "Currency", Type: FieldText, Required: true, GridGroup: "price"},
			{Name: "pricePerKwh", Label: "Price per kWh", Type: FieldNumber, Required: true, GridGroup: "price"},
			{Name: "validFrom", Label: "Valid From", Type: FieldDate},
		},
		Rules: []Rule{
			{Expr: `record.pricePerKwh == nil || record.pricePerKwh >= 0`, Field: "pricePerKwh", Message: "Price must not be negative"},
		},
		DropdownSources: map[string]string{"operatorId": "Operators"},
		UpdateStrip:     []string{"operatorName", "createdAt", "updatedAt"},
		Child: &ChildConfig{
			Resource:    "RateBreakdowns",
			ParentField: "rateId",
			PageSize:    5,
			Columns: []ColumnSchema{
				{Key: "description", Label: "Component"},
				{Key: "amount", Label: "Amount", Class: "numeric"},
				{Key: "unit", Label: "Unit"},
			},
		},
	}
}

func rateBreakdownsScreen() *Screen {
	return &Screen{
		Name:     "rate-breakdowns",
		Title:    "Rate Breakdowns",
		Resource: "RateBreakdowns",
		Columns: []ColumnSchema{
			{Key: "description", Label: "Component"},
			{Key: "rateName", Label: "Rate"},
			{Key: "amount", Label: "Amount", Class: "numeric"},
			{Key: "unit", Label: "Unit"},
		},
		FormFields: []FieldSchema{
			{Name: "description", Label: "Description", Type: FieldText, Required: true, GridGroup: "main"},
			{Name: "rateId", Label: "Rate", Type: FieldSelect, Required: true, GridGroup: "main"},
			{Name: "amount", Label: "Amount", Type: FieldNumber, Required: true, GridGroup: "value"},
			{Name: "unit", Label: "Unit", Type: FieldSelect, GridGroup: "value", Options: []SelectOption{
				{Value: "kwh", Label: "Per kWh"},
				{Value: "minute", Label: "Per minute"},
				{Value: "session", Label: "Per session"},
			}},
		},
		DropdownSources: map[string]string{"rateId": "Rates"},
		UpdateStrip:     []string{"rateName", "createdAt", "updatedAt"},
	}
}

func usersScreen() *Screen {
	return &Screen{
		Name:     "users",
		Title:    "Users",
		Resource: "Users",
		IDField:  "userId",
		Columns: []ColumnSchema{
			{Key: "fullName", Label: "Name"},
			{Key: "email", Label: "Email"},
			{Key: "role", Label: "Role"},
			{Key: "active", Label: "Active", Render: yesNo},
		},
		FormFields: []FieldSchema{
			{Name: "fullName", Label: "Full Name", Type: FieldText, Required: true, GridGroup: "main"},
			{Name: "email", Label: "Email", Type: FieldEmail, Required: true, GridGroup: "main"},
			{Name: "role", Label: "Role", Type: FieldSelect, Required: true, Options: []SelectOption{
				{Value: "admin", Label: "Administrator"},
				{Value: "operator", Label: "Operator"},
			}},
			{Name: "operatorId", Label: "Operator", Type: FieldSelect},
			{Name: "active", Label: "Active", Type: FieldCheckbox},
		},
		Rules: []Rule{
			{Expr: `record.role != "operator" || (record.operatorId != nil && record.operatorId != "")`, Field: "operatorId", Message: "Operator accounts must be linked to an operator"},
		},
		DropdownSources: map[string]string{"operatorId": "Operators"},
		UpdateStrip:     []string{"password", "createdAt", "updatedAt"},
		Activatable:     true,
	}
}

func accountRequestsScreen() *Screen {
	return &Screen{
		Name:     "account-requests",
		Title:    "Account Requests",
		Resource: "AccountRequests",
		Columns: []ColumnSchema{
			{Key: "companyName", Label: "Company"},
			{Key: "email", Label: "Email"},
			{Key: "requestedAt", Label: "Requested"},
			{Key: "status", Label: "Status"},
		},
		FormFields: []FieldSchema{
			{Name: "companyName", Label: "Company", Type: FieldText, ReadOnly: true, GridGroup: "main"},
			{Name: "email", Label: "Email", Type: FieldEmail, ReadOnly: true, GridGroup: "main"},
			{Name: "message", Label: "Message", Type: FieldTextarea, ReadOnly: true},
			{Name: "status", Label: "Status", Type: FieldText, ReadOnly: true},
		},
		ReadOnly:   true,
		Approvable: true,
	}
}
