package config

// EndpointConfig is the monitored endpoint, either a plain URL string or a
// URL with additional metric labels attached.
type EndpointConfig struct {
	URL    string
	Labels map[string]string
}

// UnmarshalYAML implements yaml.Unmarshaler interface.
func (d *EndpointConfig) UnmarshalYAML(unmashal func(interface{}) error) error {
	var s string
	if err := unmashal(&s); err == nil {
		d.URL = s
		return nil
	}

	var x map[string]map[string]string
	if err := unmashal(&x); err != nil {
		return err
	}

	for u, l := range x {
		d.URL = u
		d.Labels = l
	}

	return nil
}

func (d EndpointConfig) MarshalYAML() (interface{}, error) {
	// If there are no labels, just return the URL as a string
	if len(d.Labels) == 0 {
		return d.URL, nil
	}

	m := make(map[string]string)
	m["url"] = d.URL
	for k, v := range d.Labels {
		m[k] = v
	}

	return m, nil
}
