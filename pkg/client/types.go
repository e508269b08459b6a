package client

// PolicyResponse lists the policy templates scans can be created from.
type PolicyResponse struct {
	Templates []PolicyTemplate `json:"templates"`
}

type PolicyTemplate struct {
	Desc             string `json:"desc"`
	Title            string `json:"title"`
	Name             string `json:"name"`
	SubscriptionOnly bool   `json:"subscription_only"`
	UUID             string `json:"uuid"`
	CloudOnly        *bool  `json:"cloud_only,omitempty"`
}

// ScanSettings are the settings of a new scan.
type ScanSettings struct {
	Name        string  `json:"name"`
	Description *string `json:"description,omitempty"`
	PolicyID    *uint32 `json:"policy_id,omitempty"`
	FolderID    *uint32 `json:"folder_id,omitempty"`
	ScannerID   *uint32 `json:"scanner_id,omitempty"`
	Enabled     bool    `json:"enabled"`
	// Launch is one of ON_DEMAND, DAILY, WEEKLY, MONTHLY or YEARLY.
	Launch *string `json:"launch,omitempty"`
	// StartTime is formatted as YYYYMMDDTHHMMSS.
	StartTime *string `json:"starttime,omitempty"`
	// RRules is a recurrence rule such as "FREQ=WEEKLY;INTERVAL=3;BYDAY=MO,WE,FR".
	RRules      *string `json:"rrules,omitempty"`
	Timezone    *string `json:"timezone,omitempty"`
	TextTargets string  `json:"text_targets"`
	FileTargets *string `json:"file_targets,omitempty"`
	Emails      *string `json:"emails,omitempty"`
}

// ScanSettingsUpdate are the settings sent when reconfiguring a scan. Unset
// optional fields are left unchanged by the server.
type ScanSettingsUpdate struct {
	Name        *string `json:"name,omitempty"`
	Description *string `json:"description,omitempty"`
	PolicyID    *uint32 `json:"policy_id,omitempty"`
	FolderID    *uint32 `json:"folder_id,omitempty"`
	ScannerID   *uint32 `json:"scanner_id,omitempty"`
	Enabled     bool    `json:"enabled"`
	Launch      *string `json:"launch,omitempty"`
	StartTime   *string `json:"starttime,omitempty"`
	RRules      *string `json:"rrules,omitempty"`
	Timezone    *string `json:"timezone,omitempty"`
	TextTargets string  `json:"text_targets"`
	FileTargets *string `json:"file_targets,omitempty"`
	Emails      *string `json:"emails,omitempty"`
}

type CreateScanRequest struct {
	UUID     string       `json:"uuid"`
	Settings ScanSettings `json:"settings"`
}

type CreateScanResponse struct {
	UUID string `json:"uuid"`
}

type UpdateScanRequest struct {
	UUID     *string            `json:"uuid,omitempty"`
	Settings ScanSettingsUpdate `json:"settings"`
}

type UpdateScanResponse struct {
	UUID string `json:"uuid"`
}

// ScanLaunch is the handle of a launched scan run. ScanID is not part of the
// server response; it is set by LaunchScan.
type ScanLaunch struct {
	ScanUUID string `json:"scan_uuid"`
	ScanID   uint64 `json:"-"`
}

type ScanList struct {
	Folders   []Folder `json:"folders"`
	Scans     []Scan   `json:"scans"`
	Timestamp uint64   `json:"timestamp"`
}

// ByName returns the scans named name.
func (l *ScanList) ByName(name string) []Scan {
	var out []Scan
	for _, s := range l.Scans {
		if s.Name == name {
			out = append(out, s)
		}
	}
	return out
}

type Folder struct {
	UnreadCount *uint32 `json:"unread_count,omitempty"`
	Custom      uint32  `json:"custom"`
	DefaultTag  uint32  `json:"default_tag"`
	Type        string  `json:"type"`
	Name        string  `json:"name"`
	ID          uint64  `json:"id"`
}

type Scan struct {
	FolderID             uint64  `json:"folder_id"`
	Read                 bool    `json:"read"`
	LastModificationDate uint64  `json:"last_modification_date"`
	CreationDate         uint64  `json:"creation_date"`
	Status               string  `json:"status"`
	UUID                 *string `json:"uuid,omitempty"`
	Shared               bool    `json:"shared"`
	UserPermissions      uint64  `json:"user_permissions"`
	Owner                string  `json:"owner"`
	Timezone             *string `json:"timezone,omitempty"`
	RRules               *string `json:"rrules,omitempty"`
	StartTime            *string `json:"starttime,omitempty"`
	Control              bool    `json:"control"`
	Name                 string  `json:"name"`
	ID                   uint64  `json:"id"`
}

const (
	ScanStatusRunning  = "running"
	ScanStatusComplete = "complete"
	ExportStatusReady  = "ready"
)

type ScanDetails struct {
	Info            ScanDetailsInfo            `json:"info"`
	Hosts           []ScanDetailsHost          `json:"hosts"`
	CompHosts       []ScanDetailsHost          `json:"comphosts"`
	Vulnerabilities []ScanDetailsVulnerability `json:"vulnerabilities"`
	Compliance      []ScanDetailsVulnerability `json:"compliance"`
}

func (d *ScanDetails) IsRunning() bool {
	return d.Info.Status == ScanStatusRunning
}

func (d *ScanDetails) IsComplete() bool {
	return d.Info.Status == ScanStatusComplete
}

// normalize replaces absent collections with empty ones.
func (d *ScanDetails) normalize() {
	if d.Hosts == nil {
		d.Hosts = []ScanDetailsHost{}
	}
	if d.CompHosts == nil {
		d.CompHosts = []ScanDetailsHost{}
	}
	if d.Vulnerabilities == nil {
		d.Vulnerabilities = []ScanDetailsVulnerability{}
	}
	if d.Compliance == nil {
		d.Compliance = []ScanDetailsVulnerability{}
	}
}

type ScanDetailsInfo struct {
	EditAllowed     *bool   `json:"edit_allowed,omitempty"`
	Status          string  `json:"status"`
	Policy          *string `json:"policy,omitempty"`
	PCICanUpload    *bool   `json:"pci-can-upload,omitempty"`
	HasAuditTrail   *bool   `json:"hasaudittrail,omitempty"`
	ScanStart       *uint64 `json:"scan_start,omitempty"`
	FolderID        uint64  `json:"folder_id"`
	Targets         *string `json:"targets,omitempty"`
	Timestamp       *uint64 `json:"timestamp,omitempty"`
	ObjectID        uint64  `json:"object_id"`
	ScannerName     string  `json:"scanner_name"`
	HasKB           *bool   `json:"haskb,omitempty"`
	UUID            *string `json:"uuid,omitempty"`
	HostCount       *uint64 `json:"hostcount,omitempty"`
	Name            string  `json:"name"`
	UserPermissions uint64  `json:"user_permissions"`
	Control         bool    `json:"control"`
}

type ScanDetailsHost struct {
	HostID                uint64 `json:"host_id"`
	HostIndex             uint64 `json:"host_index"`
	Hostname              string `json:"hostname"`
	Progress              string `json:"progress"`
	Critical              uint64 `json:"critical"`
	High                  uint64 `json:"high"`
	Medium                uint64 `json:"medium"`
	Low                   uint64 `json:"low"`
	Info                  uint64 `json:"info"`
	TotalChecksConsidered uint64 `json:"totalchecksconsidered"`
	NumChecksConsidered   uint64 `json:"numchecksconsidered"`
	ScanProgressTotal     uint64 `json:"scanprogresstotal"`
	ScanProgressCurrent   uint64 `json:"scanprogresscurrent"`
	Score                 uint64 `json:"score"`
}

type ScanDetailsVulnerability struct {
	PluginID      uint64  `json:"plugin_id"`
	PluginName    string  `json:"plugin_name"`
	PluginFamily  string  `json:"plugin_family"`
	Count         uint64  `json:"count"`
	VulnIndex     *uint64 `json:"vuln_index,omitempty"`
	SeverityIndex uint64  `json:"severity_index"`
}

// ExportToken is the handle of a requested export. ScanID is not part of the
// server response; it is set by ExportScan.
type ExportToken struct {
	File   uint64 `json:"file"`
	Token  string `json:"token"`
	ScanID uint64 `json:"-"`
}

type ExportStatus struct {
	Status string `json:"status"`
}

func (s *ExportStatus) IsReady() bool {
	return s.Status == ExportStatusReady
}
