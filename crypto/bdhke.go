package crypto

import (
	"crypto/sha256"
	"encoding/hex"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/decred/dcrd/dcrec/secp256k1/v4"
)

func HashToCurve(message []byte) *secp256k1.PublicKey {
	var point *secp256k1.PublicKey

	for point == nil || !point.IsOnCurve() {
		hash := sha256.Sum256(message)
		pkhash := append([]byte{0x02}, hash[:]...)
		point, _ = secp256k1.ParsePubKey(pkhash)
		message = hash[:]
	}
	return point
}

// B_ = Y + rG
func BlindMessage(secret []byte, blindingFactor []byte) (*secp256k1.PublicKey, *secp256k1.PrivateKey) {
	var ypoint, rpoint, blindedMessage secp256k1.JacobianPoint

	Y := HashToCurve(secret)
	Y.AsJacobian(&ypoint)

	r, rpub := btcec.PrivKeyFromBytes(blindingFactor)
	rpub.AsJacobian(&rpoint)

	// blindedMessage = Y + rG (rpub)
	secp256k1.AddNonConst(&ypoint, &rpoint, &blindedMessage)
	blindedMessage.ToAffine()
	B_ := secp256k1.NewPublicKey(&blindedMessage.X, &blindedMessage.Y)

	return B_, r
}

// C_ = kB_
func SignBlindedMessage(B_ *secp256k1.PublicKey, k *secp256k1.PrivateKey) *secp256k1.PublicKey {
	var bpoint, result secp256k1.JacobianPoint
	B_.AsJacobian(&bpoint)

	// result = k * B_
	secp256k1.ScalarMultNonConst(&k.Key, &bpoint, &result)
	result.ToAffine()
	C_ := secp256k1.NewPublicKey(&result.X, &result.Y)

	return C_
}

// C = C_ - rK
func UnblindSignature(C_ *secp256k1.PublicKey, r *secp256k1.PrivateKey,
	K *secp256k1.PublicKey) *secp256k1.PublicKey {

	var Kpoint, rKPoint, CPoint secp256k1.JacobianPoint
	K.AsJacobian(&Kpoint)

	var rNeg secp256k1.ModNScalar
	rNeg.NegateVal(&r.Key)

	secp256k1.ScalarMultNonConst(&rNeg, &Kpoint, &rKPoint)

	var C_Point secp256k1.JacobianPoint
	C_.AsJacobian(&C_Point)
	secp256k1.AddNonConst(&C_Point, &rKPoint, &CPoint)
	CPoint.ToAffine()

	C := secp256k1.NewPublicKey(&CPoint.X, &CPoint.Y)
	return C
}

// k * HashToCurve(secret) == C
func Verify(secret []byte, k *secp256k1.PrivateKey, C *secp256k1.PublicKey) bool {
	var Ypoint, result secp256k1.JacobianPoint
	Y := HashToCurve(secret)
	Y.AsJacobian(&Ypoint)

	secp256k1.ScalarMultNonConst(&k.Key, &Ypoint, &result)
	result.ToAffine()
	pk := secp256k1.NewPublicKey(&result.X, &result.Y)

	return C.IsEqual(pk)
}

func mulPoint(scalar *secp256k1.ModNScalar, point *secp256k1.PublicKey) secp256k1.JacobianPoint {
	var jpoint, result secp256k1.JacobianPoint
	point.AsJacobian(&jpoint)
	secp256k1.ScalarMultNonConst(scalar, &jpoint, &result)
	result.ToAffine()
	return result
}

func addPoints(a, b *secp256k1.PublicKey) secp256k1.JacobianPoint {
	var ajac, bjac, result secp256k1.JacobianPoint
	a.AsJacobian(&ajac)
	b.AsJacobian(&bjac)
	secp256k1.AddNonConst(&ajac, &bjac, &result)
	result.ToAffine()
	return result
}

func hashDLEQChallenge(points ...*secp256k1.PublicKey) *secp256k1.ModNScalar {
	var concat string
	for _, p := range points {
		concat += hex.EncodeToString(p.SerializeUncompressed())
	}
	digest := sha256.Sum256([]byte(concat))

	var e secp256k1.ModNScalar
	e.SetByteSlice(digest[:])
	return &e
}

// GenerateDLEQ produces a non-interactive proof that C_ = k*B_ for the same
// k used to derive the mint's public key A = k*G, without revealing k.
//
//	r0 random scalar
//	R1 = r0*G
//	R2 = r0*B_
//	e  = H(R1, R2, A, C_)
//	s  = r0 + e*k
func GenerateDLEQ(k *secp256k1.PrivateKey, B_, C_ *secp256k1.PublicKey) (e, s *secp256k1.PrivateKey) {
	r0Priv, err := secp256k1.GeneratePrivateKey()
	if err != nil {
		panic(err)
	}
	r0 := &r0Priv.Key

	// R1 = r0*G
	R1 := r0Priv.PubKey()

	r2Point := mulPoint(r0, B_)
	R2 := secp256k1.NewPublicKey(&r2Point.X, &r2Point.Y)

	A := k.PubKey()
	eScalar := hashDLEQChallenge(R1, R2, A, C_)

	var ek secp256k1.ModNScalar
	ek.Mul2(eScalar, &k.Key)
	var s0 secp256k1.ModNScalar
	s0.Add2(r0, &ek)

	e = secp256k1.NewPrivateKey(eScalar)
	s = secp256k1.NewPrivateKey(&s0)
	return e, s
}

// VerifyDLEQ checks a mint-issued DLEQ proof against A = k*G, the blinded
// message B_ and the blind signature C_.
//
//	R1 = s*G - e*A
//	R2 = s*B_ - e*C_
//	verify e == H(R1, R2, A, C_)
func VerifyDLEQ(e, s *secp256k1.PrivateKey, A, B_, C_ *secp256k1.PublicKey) bool {
	sG := s.PubKey()

	var eNeg secp256k1.ModNScalar
	eNeg.NegateVal(&e.Key)
	eANegJac := mulPoint(&eNeg, A)
	eANeg := secp256k1.NewPublicKey(&eANegJac.X, &eANegJac.Y)
	R1Jac := addPoints(sG, eANeg)
	R1 := secp256k1.NewPublicKey(&R1Jac.X, &R1Jac.Y)

	sB_Jac := mulPoint(&s.Key, B_)
	sB_ := secp256k1.NewPublicKey(&sB_Jac.X, &sB_Jac.Y)
	eCNegJac := mulPoint(&eNeg, C_)
	eCNeg := secp256k1.NewPublicKey(&eCNegJac.X, &eCNegJac.Y)
	R2Jac := addPoints(sB_, eCNeg)
	R2 := secp256k1.NewPublicKey(&R2Jac.X, &R2Jac.Y)

	expected := hashDLEQChallenge(R1, R2, A, C_)
	return expected.Equals(&e.Key)
}
