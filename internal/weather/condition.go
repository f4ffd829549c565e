package weather

// Condition is a coarse weather condition derived from a WMO weather code.
type Condition string

const (
	ConditionClear        Condition = "clear"
	ConditionPartlyCloudy Condition = "partly_cloudy"
	ConditionOvercast     Condition = "overcast"
	ConditionFog          Condition = "fog"
	ConditionDrizzle      Condition = "drizzle"
	ConditionRain         Condition = "rain"
	ConditionSnow         Condition = "snow"
	ConditionRainShowers  Condition = "rain_showers"
	ConditionSnowShowers  Condition = "snow_showers"
	ConditionThunderstorm Condition = "thunderstorm"
	ConditionUnknown      Condition = "unknown"
)

// WMO weather interpretation codes as used by Open-Meteo.
var conditionByCode = map[int]Condition{
	0:  ConditionClear,
	1:  ConditionPartlyCloudy,
	2:  ConditionPartlyCloudy,
	3:  ConditionOvercast,
	45: ConditionFog,
	48: ConditionFog,
	51: ConditionDrizzle,
	53: ConditionDrizzle,
	55: ConditionDrizzle,
	56: ConditionDrizzle,
	57: ConditionDrizzle,
	61: ConditionRain,
	63: ConditionRain,
	65: ConditionRain,
	66: ConditionRain,
	67: ConditionRain,
	71: ConditionSnow,
	73: ConditionSnow,
	75: ConditionSnow,
	77: ConditionSnow,
	80: ConditionRainShowers,
	81: ConditionRainShowers,
	82: ConditionRainShowers,
	85: ConditionSnowShowers,
	86: ConditionSnowShowers,
	95: ConditionThunderstorm,
	96: ConditionThunderstorm,
	99: ConditionThunderstorm,
}

// ConditionFromCode maps a WMO code to a Condition. Unlisted codes are unknown.
func ConditionFromCode(code int) Condition {
	if c, ok := conditionByCode[code]; ok {
		return c
	}
	return ConditionUnknown
}

// Wet reports whether the condition involves precipitation.
func (c Condition) Wet() bool {
	switch c {
	case ConditionDrizzle, ConditionRain, ConditionRainShowers, ConditionSnow, ConditionSnowShowers, ConditionThunderstorm:
		return true
	}
	return false
}

// Snowy reports whether the condition is snowfall.
func (c Condition) Snowy() bool {
	return c == ConditionSnow || c == ConditionSnowShowers
}
