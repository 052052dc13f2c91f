package domain

// RecognitionType classifies who was recognized.
// 1: Employee; 2: Visitor; 3: Blacklist; 4: Stranger; 5: Unidentified
type RecognitionType int

const (
	RecognitionNone RecognitionType = iota
	RecognitionEmployee
	RecognitionVisitor
	RecognitionBlacklist
	RecognitionStranger
	RecognitionUnidentified
)

// VerificationMode is the credential combination the device verified.
// 0: face; 1: face or card; 2: face and card; 3: face and password
type VerificationMode int

const (
	VerificationFace VerificationMode = iota
	VerificationFaceOrCard
	VerificationFaceAndCard
	VerificationFaceAndPassword
)

// PassType records whether the subject was let through.
type PassType int

const (
	PassDenied PassType = iota
	PassGranted
)

// LivenessType is the anti-spoofing classification attached to a record.
// 0: non-living attack; 1: living; 2: not detected
type LivenessType int

const (
	LivenessNonLiving LivenessType = iota
	LivenessLiving
	LivenessNotDetected
)
