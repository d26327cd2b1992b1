package main

import "github.com/connqual/latency_monitor/config"

type customLabelSet struct {
	names   []string
	nameMap map[string]interface{}
}

func newCustomLabelSet(endpoint config.EndpointConfig) *customLabelSet {
	cl := &customLabelSet{
		nameMap: make(map[string]interface{}),
		names:   make([]string, 0),
	}

	cl.addLabelsForEndpoint(&endpoint)

	return cl
}

func (cl *customLabelSet) addLabelsForEndpoint(e *config.EndpointConfig) {
	if e.Labels == nil {
		return
	}

	for name := range e.Labels {
		cl.addLabel(name)
	}
}

func (cl *customLabelSet) addLabel(name string) {
	_, exists := cl.nameMap[name]
	if exists {
		return
	}

	cl.names = append(cl.names, name)
	cl.nameMap[name] = nil
}

func (cl *customLabelSet) labelNames() []string {
	return cl.names
}

func (cl *customLabelSet) labelValues(e config.EndpointConfig) []string {
	values := make([]string, len(cl.names))
	if e.Labels == nil {
		return values
	}

	for i, name := range cl.names {
		if value, isSet := e.Labels[name]; isSet {
			values[i] = value
		}
	}

	return values
}
