package dataset

// Fuel is one generation fuel category.
type Fuel string

const (
	FuelCoal            Fuel = "Coal"
	FuelGas             Fuel = "Gas"
	FuelOtherFossil     Fuel = "Other Fossil"
	FuelBioenergy       Fuel = "Bioenergy"
	FuelHydro           Fuel = "Hydro"
	FuelNuclear         Fuel = "Nuclear"
	FuelSolar           Fuel = "Solar"
	FuelWind            Fuel = "Wind"
	FuelOtherRenewables Fuel = "Other Renewables"
)

// Fuels returns all fuel categories in canonical output order.
func Fuels() []Fuel {
	return []Fuel{
		FuelCoal,
		FuelGas,
		FuelOtherFossil,
		FuelBioenergy,
		FuelHydro,
		FuelNuclear,
		FuelSolar,
		FuelWind,
		FuelOtherRenewables,
	}
}

// Variable identifies one observed quantity for an entity.
type Variable string

const (
	VarDemand          Variable = "Demand"
	VarNetImports      Variable = "Net Imports"
	VarTotalGeneration Variable = "Total Generation"
)

// FuelVariable maps a fuel category to its variable name.
func FuelVariable(f Fuel) Variable { return Variable(f) }

// FuelFromVariable reports whether v is a per-fuel generation variable.
func FuelFromVariable(v Variable) (Fuel, bool) {
	for _, f := range Fuels() {
		if Variable(f) == v {
			return f, true
		}
	}
	return "", false
}

// Variables returns every variable tracked per entity: the three accounting
// quantities followed by the per-fuel generation categories.
func Variables() []Variable {
	vars := []Variable{VarDemand, VarNetImports, VarTotalGeneration}
	for _, f := range Fuels() {
		vars = append(vars, FuelVariable(f))
	}
	return vars
}

// KnownVariable validates a variable name from the input table.
func KnownVariable(v Variable) bool {
	for _, known := range Variables() {
		if v == known {
			return true
		}
	}
	return false
}
