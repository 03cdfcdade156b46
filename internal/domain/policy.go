package domain

// PolicyInput is the document handed to the admission policy before a mint.
// Hashes travel hex-encoded so rego rules can match on them.
type PolicyInput struct {
	Principal       string `json:"principal"`
	PackageName     string `json:"package_name"`
	MerkleAlgo      uint8  `json:"merkle_algo"`
	MerkleRootHex   string `json:"merkle_root_hex"`
	ManifestVersion string `json:"manifest_version"`
	ManifestAlgo    uint8  `json:"manifest_algo"`
	ManifestHashHex string `json:"manifest_hash_hex"`
	ParentID        string `json:"parent_id,omitempty"`
}

type PolicyDeny struct {
	Code    string `json:"code"`
	Message string `json:"message,omitempty"`
}

type PolicyResult struct {
	Allow bool         `json:"allow"`
	Deny  []PolicyDeny `json:"deny,omitempty"`
}

type PolicyEvaluation struct {
	BundleID   string       `json:"bundle_id,omitempty"`
	BundleHash string       `json:"bundle_hash"`
	Result     PolicyResult `json:"result"`
}
