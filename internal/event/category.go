package event

// Flags describe how the matcher treats one event category.
type Flags struct {
	// Omit marks raw measurement rows (temperature, voltage, ...) that are
	// never matched into intervals.
	Omit bool
	// Transitional categories pair begin/end tokens. An unmarked token at
	// elapsed time zero in such a category is an implicit begin: the
	// condition was already active when the capture window opened.
	Transitional bool
	// Concurrent categories can hold several open instances at once,
	// distinguished by the payload after "=" as a sub-category.
	Concurrent bool
}

var categoryFlags = map[string]Flags{
	"temp":       {Omit: true},
	"volt":       {Omit: true},
	"brightness": {Omit: true},
	"sensor":     {Omit: true, Transitional: true},
	"proc":       {Omit: true, Transitional: true},

	"plugged":        {Transitional: true},
	"running":        {Transitional: true},
	"wake_lock":      {Transitional: true},
	"gps":            {Transitional: true},
	"phone_in_call":  {Transitional: true},
	"mobile_radio":   {Transitional: true},
	"phone_scanning": {Transitional: true},
	"fg":             {Transitional: true},
	"wifi":           {Transitional: true},
	"wifi_full_lock": {Transitional: true},
	"wifi_scan":      {Transitional: true},
	"wifi_multicast": {Transitional: true},
	"wifi_running":   {Transitional: true},
	"bluetooth":      {Transitional: true},
	"audio":          {Transitional: true},
	"video":          {Transitional: true},

	"top":          {Transitional: true, Concurrent: true},
	"sync":         {Transitional: true, Concurrent: true},
	"wake_lock_in": {Transitional: true, Concurrent: true},
}

// Lookup returns the behavior flags for a category. Unknown categories get
// the zero value: matched without sub-categories, no implicit begin.
func Lookup(cat string) Flags {
	return categoryFlags[cat]
}
