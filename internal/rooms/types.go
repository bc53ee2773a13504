package rooms

// DefaultLocation is reported when upstream has no location for a room.
const DefaultLocation = "Unknown Location"

// Room is the read-only projection of an upstream room.
type Room struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Email    string `json:"email"`
	Capacity int    `json:"capacity"`
	Building string `json:"building"`
	Floor    string `json:"floor"`
	Location string `json:"location"`
}

// Details is a Room together with its calendar and equipment.
type Details struct {
	Room
	Availability []Window `json:"availability"`
	Equipment    []any    `json:"equipment"`
}

// Window is one busy interval on a room's calendar.
type Window struct {
	Start   string `json:"start"`
	End     string `json:"end"`
	Subject string `json:"subject,omitempty"`
}

// upstreamRoom mirrors the proxy's room JSON, which is not consistent about
// field names.
type upstreamRoom struct {
	ID           string   `mapstructure:"id"`
	DisplayName  string   `mapstructure:"displayName"`
	Name         string   `mapstructure:"name"`
	Email        string   `mapstructure:"email"`
	EmailAddress string   `mapstructure:"emailAddress"`
	Capacity     int      `mapstructure:"capacity"`
	Building     string   `mapstructure:"building"`
	FloorNumber  string   `mapstructure:"floorNumber"`
	Floor        string   `mapstructure:"floor"`
	Location     string   `mapstructure:"location"`
	Availability []Window `mapstructure:"availability"`
	Equipment    []any    `mapstructure:"equipment"`
}

func (u upstreamRoom) room() Room {
	return Room{
		ID:       u.ID,
		Name:     firstNonEmpty(u.DisplayName, u.Name),
		Email:    firstNonEmpty(u.Email, u.EmailAddress),
		Capacity: u.Capacity,
		Building: u.Building,
		Floor:    firstNonEmpty(u.FloorNumber, u.Floor),
		Location: firstNonEmpty(u.Location, DefaultLocation),
	}
}

func (u upstreamRoom) details() Details {
	d := Details{
		Room:         u.room(),
		Availability: u.Availability,
		Equipment:    u.Equipment,
	}
	if d.Availability == nil {
		d.Availability = []Window{}
	}
	if d.Equipment == nil {
		d.Equipment = []any{}
	}
	return d
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
