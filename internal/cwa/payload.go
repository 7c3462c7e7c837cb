package cwa

// Payload is the decoded F-A0010-001 agricultural weather forecast
// document from the CWA open-data file API. Only the subset of the
// document the rest of the system consumes is mapped; everything else
// in the feed is ignored at decode time. All schema-drift handling
// lives here: a container missing upstream simply decodes to its zero
// value, and the accessors below report that as an empty location list.
type Payload struct {
	Root Root `json:"cwaopendata"`
}

// Root is the top-level cwaopendata envelope.
type Root struct {
	Resources Resources `json:"resources"`
}

type Resources struct {
	Resource Resource `json:"resource"`
}

type Resource struct {
	Data Data `json:"data"`
}

type Data struct {
	AgrWeatherForecasts AgrWeatherForecasts `json:"agrWeatherForecasts"`
}

type AgrWeatherForecasts struct {
	WeatherForecasts WeatherForecasts `json:"weatherForecasts"`
}

type WeatherForecasts struct {
	Location []Location `json:"location"`
}

// Location is one named place in the forecast feed.
type Location struct {
	Name     string          `json:"locationName"`
	Elements WeatherElements `json:"weatherElements"`
}

// WeatherElements holds the three forecast elements the dashboard
// consumes: daily maximum temperature, daily minimum temperature, and
// the weather condition text.
type WeatherElements struct {
	MaxT Element `json:"MaxT"`
	MinT Element `json:"MinT"`
	Wx   Element `json:"Wx"`
}

// Element is a per-element sequence of daily forecast entries.
type Element struct {
	Daily []Daily `json:"daily"`
}

// Daily is one day's entry within an element. Temperature entries
// carry temperature and dataDate; Wx entries carry weather.
type Daily struct {
	DataDate    string `json:"dataDate"`
	Temperature string `json:"temperature"`
	Weather     string `json:"weather"`
}

// locations returns the location sequence, or nil when any container
// on the path is absent (upstream schema drift).
func (p *Payload) locations() []Location {
	if p == nil {
		return nil
	}
	return p.Root.Resources.Resource.Data.AgrWeatherForecasts.WeatherForecasts.Location
}
