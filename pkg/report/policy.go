package report

// Policy is the scan configuration embedded in an export. It is carried
// through as-is.
type Policy struct {
	Name                      string                    `xml:"policyName" json:"name" yaml:"name"`
	Preferences               Preferences               `xml:"Preferences" json:"preferences" yaml:"preferences"`
	FamilySelection           FamilySelection           `xml:"FamilySelection" json:"familySelection" yaml:"familySelection"`
	IndividualPluginSelection IndividualPluginSelection `xml:"IndividualPluginSelection" json:"individualPluginSelection" yaml:"individualPluginSelection"`
}

type Preferences struct {
	ServerPreferences  ServerPreferences  `xml:"ServerPreferences" json:"serverPreferences" yaml:"serverPreferences"`
	PluginsPreferences PluginsPreferences `xml:"PluginsPreferences" json:"pluginsPreferences" yaml:"pluginsPreferences"`
}

type ServerPreferences struct {
	Preferences []ServerPreference `xml:"preference" json:"preferences" yaml:"preferences"`
}

type ServerPreference struct {
	Name  string `xml:"name" json:"name" yaml:"name"`
	Value string `xml:"value" json:"value" yaml:"value"`
}

// Get returns the value of a server preference by name.
func (p ServerPreferences) Get(name string) (string, bool) {
	for _, pref := range p.Preferences {
		if pref.Name == name {
			return pref.Value, true
		}
	}
	return "", false
}

type PluginsPreferences struct {
	Preferences []PluginPreference `xml:"item" json:"preferences" yaml:"preferences"`
}

type PluginPreference struct {
	PluginName       string `xml:"pluginName" json:"pluginName" yaml:"pluginName"`
	PluginID         uint64 `xml:"pluginId" json:"pluginId" yaml:"pluginId"`
	FullName         string `xml:"fullName" json:"fullName" yaml:"fullName"`
	PreferenceName   string `xml:"preferenceName" json:"preferenceName" yaml:"preferenceName"`
	PreferenceType   string `xml:"preferenceType" json:"preferenceType" yaml:"preferenceType"`
	PreferenceValues string `xml:"preferenceValues" json:"preferenceValues" yaml:"preferenceValues"`
	SelectedValue    string `xml:"selectedValue" json:"selectedValue" yaml:"selectedValue"`
}

type FamilySelection struct {
	FamilyItems []FamilyItem `xml:"FamilyItem" json:"familyItems" yaml:"familyItems"`
}

type FamilyItem struct {
	FamilyName string `xml:"FamilyName" json:"familyName" yaml:"familyName"`
	Status     string `xml:"Status" json:"status" yaml:"status"`
}

type IndividualPluginSelection struct {
	PluginItems []PluginItem `xml:"PluginItem" json:"pluginItems" yaml:"pluginItems"`
}

type PluginItem struct {
	PluginID   uint64 `xml:"PluginId" json:"pluginId" yaml:"pluginId"`
	PluginName string `xml:"PluginName" json:"pluginName" yaml:"pluginName"`
	Family     string `xml:"Family" json:"family" yaml:"family"`
	Status     string `xml:"Status" json:"status" yaml:"status"`
}
