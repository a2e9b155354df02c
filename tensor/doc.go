// Package tensor provides the minimal dense tensor the training harness
// passes between its collaborators. The harness never inspects tensor
// contents beyond shape bookkeeping and device placement; the numerical
// kernels live behind the model interface.
package tensor
